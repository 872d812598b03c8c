package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Request is a change request against a project. It is created PENDING and
// active, and resolved exactly once by an administrator's decision.
type Request struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Type           RequestType    `gorm:"type:varchar(16);not null;index" json:"type"`
	DecisionStatus DecisionStatus `gorm:"type:varchar(16);not null;index" json:"decisionStatus"`
	Active         bool           `gorm:"not null;index" json:"active"`

	// ProjectID is nil for a CREATE request until it is approved.
	ProjectID    *uuid.UUID `gorm:"type:uuid;index" json:"projectId"`
	LicencePlate string     `gorm:"type:varchar(16);index;not null" json:"licencePlate"`

	CreatedBy     string     `gorm:"not null;index" json:"createdBy"`
	DecisionMaker *string    `json:"decisionMaker"`
	HumanComment  *string    `gorm:"type:text" json:"humanComment"`
	Created       time.Time  `gorm:"autoCreateTime" json:"created"`
	DecisionDate  *time.Time `json:"decisionDate"`

	RequestedProject datatypes.JSONType[Project]      `gorm:"type:jsonb;not null" json:"requestedProject"`
	Patch            datatypes.JSONType[ProjectPatch] `gorm:"type:jsonb" json:"patch"`

	// Participants are the contacts of the current and requested project,
	// used to scope visibility for non-admin callers.
	Participants pq.StringArray `gorm:"type:text[];not null" json:"-"`
}

// Snapshot returns the requested end state.
func (r *Request) Snapshot() Project {
	return r.RequestedProject.Data()
}

// Diff returns the dirty-field patch of an EDIT request.
func (r *Request) Diff() ProjectPatch {
	return r.Patch.Data()
}

// Pending reports whether the request is still undecided.
func (r *Request) Pending() bool {
	return r.DecisionStatus == DecisionPending
}

// HasParticipant reports whether email may see this request without the admin role.
func (r *Request) HasParticipant(email string) bool {
	e := NormalizeEmail(email)
	for _, p := range r.Participants {
		if p == e {
			return true
		}
	}
	return false
}
