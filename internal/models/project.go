package models

import (
	"time"

	"github.com/google/uuid"
)

// QuotaSet holds the tier selected for each resource kind of one namespace.
type QuotaSet struct {
	CPU     string `json:"cpu"`
	Memory  string `json:"memory"`
	Storage string `json:"storage"`
}

// CommonComponents records which shared platform services a project uses.
// No cross-field constraint is enforced.
type CommonComponents struct {
	AddressAndGeolocation              bool    `json:"addressAndGeolocation"`
	WorkflowManagement                 bool    `json:"workflowManagement"`
	FormDesignAndSubmission            bool    `json:"formDesignAndSubmission"`
	IdentityManagement                 bool    `json:"identityManagement"`
	PaymentServices                    bool    `json:"paymentServices"`
	DocumentManagement                 bool    `json:"documentManagement"`
	EndUserNotificationAndSubscription bool    `json:"endUserNotificationAndSubscription"`
	Publishing                         bool    `json:"publishing"`
	BusinessIntelligence               bool    `json:"businessIntelligence"`
	NoServices                         bool    `json:"noServices"`
	Other                              *string `json:"other"`
}

// Project is the persisted aggregate. It changes only through an approved Request.
type Project struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LicencePlate string        `gorm:"type:varchar(16);uniqueIndex;not null" json:"licencePlate"`
	Name         *string       `gorm:"type:varchar(255)" json:"name"`
	Description  *string       `gorm:"type:text" json:"description"`
	Ministry     *string       `gorm:"type:varchar(16);index" json:"ministry"`
	Cluster      *string       `gorm:"type:varchar(16);index" json:"cluster"`
	Status       ProjectStatus `gorm:"type:varchar(16);not null;default:ACTIVE;index" json:"status"`

	ProjectOwnerID           uuid.UUID  `gorm:"type:uuid;index;not null" json:"-"`
	ProjectOwner             User       `gorm:"foreignKey:ProjectOwnerID" json:"projectOwner"`
	PrimaryTechnicalLeadID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"-"`
	PrimaryTechnicalLead     User       `gorm:"foreignKey:PrimaryTechnicalLeadID" json:"primaryTechnicalLead"`
	SecondaryTechnicalLeadID *uuid.UUID `gorm:"type:uuid;index" json:"-"`
	SecondaryTechnicalLead   *User      `gorm:"foreignKey:SecondaryTechnicalLeadID" json:"secondaryTechnicalLead"`

	CommonComponents CommonComponents `gorm:"type:jsonb;serializer:json;not null" json:"commonComponents"`
	ProductionQuota  QuotaSet         `gorm:"type:jsonb;serializer:json;not null" json:"productionQuota"`
	TestQuota        QuotaSet         `gorm:"type:jsonb;serializer:json;not null" json:"testQuota"`
	DevelopmentQuota QuotaSet         `gorm:"type:jsonb;serializer:json;not null" json:"developmentQuota"`
	ToolsQuota       QuotaSet         `gorm:"type:jsonb;serializer:json;not null" json:"toolsQuota"`

	// ActiveRequest is the undecided request against this project, filled in by the repository.
	ActiveRequest *Request `gorm:"-" json:"activeRequest,omitempty"`

	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// Quota returns the quota set of a namespace.
func (p *Project) Quota(ns Namespace) QuotaSet {
	switch ns {
	case Production:
		return p.ProductionQuota
	case Test:
		return p.TestQuota
	case Development:
		return p.DevelopmentQuota
	case Tools:
		return p.ToolsQuota
	}
	return QuotaSet{}
}

// SetQuota replaces the quota set of a namespace.
func (p *Project) SetQuota(ns Namespace, q QuotaSet) {
	switch ns {
	case Production:
		p.ProductionQuota = q
	case Test:
		p.TestQuota = q
	case Development:
		p.DevelopmentQuota = q
	case Tools:
		p.ToolsQuota = q
	}
}

// IsEditable reports whether a new request may be filed against the project.
func (p *Project) IsEditable() bool {
	return p.ActiveRequest == nil
}

// Contacts returns the normalized e-mails of the owner and technical leads.
func (p *Project) Contacts() []string {
	out := make([]string, 0, 3)
	add := func(email string) {
		e := NormalizeEmail(email)
		if e == "" {
			return
		}
		for _, v := range out {
			if v == e {
				return
			}
		}
		out = append(out, e)
	}
	add(p.ProjectOwner.Email)
	add(p.PrimaryTechnicalLead.Email)
	if p.SecondaryTechnicalLead != nil {
		add(p.SecondaryTechnicalLead.Email)
	}
	return out
}

// HasContact reports whether email is the owner or a technical lead.
func (p *Project) HasContact(email string) bool {
	e := NormalizeEmail(email)
	for _, c := range p.Contacts() {
		if c == e {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. ActiveRequest is not carried over.
func (p *Project) Clone() *Project {
	c := *p
	c.Name = cloneString(p.Name)
	c.Description = cloneString(p.Description)
	c.Ministry = cloneString(p.Ministry)
	c.Cluster = cloneString(p.Cluster)
	c.ProjectOwner = p.ProjectOwner.clone()
	c.PrimaryTechnicalLead = p.PrimaryTechnicalLead.clone()
	if p.SecondaryTechnicalLead != nil {
		s := p.SecondaryTechnicalLead.clone()
		c.SecondaryTechnicalLead = &s
	}
	if p.SecondaryTechnicalLeadID != nil {
		id := *p.SecondaryTechnicalLeadID
		c.SecondaryTechnicalLeadID = &id
	}
	c.CommonComponents.Other = cloneString(p.CommonComponents.Other)
	c.ActiveRequest = nil
	return &c
}
