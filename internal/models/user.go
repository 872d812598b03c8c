package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a person referenced by projects as owner or technical lead.
// Users are identified by e-mail.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	FirstName *string   `gorm:"type:varchar(128)" json:"firstName"`
	LastName  *string   `gorm:"type:varchar(128)" json:"lastName"`
	Ministry  *string   `gorm:"type:varchar(16)" json:"ministry"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// NormalizeEmail is the canonical form used for identity comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u User) clone() User {
	u.FirstName = cloneString(u.FirstName)
	u.LastName = cloneString(u.LastName)
	u.Ministry = cloneString(u.Ministry)
	return u
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
