package services

import (
	"context"

	"github.com/okanji/platform-services-registry-web/internal/events"
	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/queue/tasks"
)

// Role is the capability a caller acts with.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Caller identifies who invokes an operation. It is always passed explicitly.
type Caller struct {
	Email string
	Role  Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// canSee reports whether the caller may see a project or its requests.
func (c Caller) canSee(p *models.Project) bool {
	return c.IsAdmin() || p.HasContact(c.Email)
}

// InvalidationPublisher delivers cache-invalidation events after a commit.
type InvalidationPublisher interface {
	Publish(ctx context.Context, ev events.Invalidation) error
}

// ProvisioningSink hands approved requests to fulfillment without waiting for the outcome.
type ProvisioningSink interface {
	Provision(ctx context.Context, p tasks.ProvisionPayload) error
}
