// Package events carries cache-invalidation notices from the request workflow
// to read-model refreshers over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

// Reason names the change behind an invalidation.
type Reason string

const (
	RequestCreated  Reason = "request.created"
	RequestApproved Reason = "request.approved"
	RequestRejected Reason = "request.rejected"
)

// Invalidation tells subscribers which cached views are stale.
type Invalidation struct {
	Reason       Reason    `json:"reason"`
	Scopes       []string  `json:"scopes"`
	RequestID    string    `json:"requestId,omitempty"`
	LicencePlate string    `json:"licencePlate,omitempty"`
	At           time.Time `json:"at"`
}

// ProjectRequests is the scope of requests filed against one project.
func ProjectRequests(licencePlate string) string { return "project-requests:" + licencePlate }

// RoleRequests is the scope of request lists visible to a role.
func RoleRequests(role string) string { return "role-requests:" + role }

// Project is the scope of one project's details.
func Project(licencePlate string) string { return "project:" + licencePlate }

// Projects is the scope of project listings.
const Projects = "projects"

// Publisher sends invalidations on a Redis channel.
type Publisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewPublisher(rdb redis.UniversalClient, channel string) *Publisher {
	return &Publisher{rdb: rdb, channel: channel}
}

// Publish encodes ev and publishes it. Failures are transport errors.
func (p *Publisher) Publish(ctx context.Context, ev Invalidation) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode invalidation: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return appErr.Transport(err, "publish invalidation")
	}
	return nil
}
