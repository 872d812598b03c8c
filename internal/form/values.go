// Package form converts between the persisted project shape and the flat,
// fully populated shape edited by clients. It also validates form values and
// computes the dirty-field patch recorded by EDIT requests.
package form

import (
	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/quota"
)

// User is the editable form of a user reference. Every sub-field is a plain
// string; the empty string stands for "not set".
type User struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"firstName" validate:"required,max=128"`
	LastName  string `json:"lastName" validate:"required,max=128"`
	Ministry  string `json:"ministry" validate:"required,ministry"`
}

// Empty reports whether the user is absent. Only the e-mail decides.
func (u User) Empty() bool { return u.Email == "" }

type Quota struct {
	CPU     string `json:"cpu"`
	Memory  string `json:"memory"`
	Storage string `json:"storage"`
}

func (q Quota) get(kind quota.ResourceKind) string {
	switch kind {
	case quota.CPU:
		return q.CPU
	case quota.Memory:
		return q.Memory
	case quota.Storage:
		return q.Storage
	}
	return ""
}

type CommonComponents struct {
	AddressAndGeolocation              bool   `json:"addressAndGeolocation"`
	WorkflowManagement                 bool   `json:"workflowManagement"`
	FormDesignAndSubmission            bool   `json:"formDesignAndSubmission"`
	IdentityManagement                 bool   `json:"identityManagement"`
	PaymentServices                    bool   `json:"paymentServices"`
	DocumentManagement                 bool   `json:"documentManagement"`
	EndUserNotificationAndSubscription bool   `json:"endUserNotificationAndSubscription"`
	Publishing                         bool   `json:"publishing"`
	BusinessIntelligence               bool   `json:"businessIntelligence"`
	NoServices                         bool   `json:"noServices"`
	Other                              string `json:"other" validate:"max=512"`
}

// Values is the flat form model of a project.
type Values struct {
	LicencePlate string `json:"licencePlate,omitempty" validate:"-"`
	Name         string `json:"name" validate:"required,max=255"`
	Description  string `json:"description" validate:"required,max=4000"`
	Ministry     string `json:"ministry" validate:"required,ministry"`
	Cluster      string `json:"cluster" validate:"required,cluster"`

	ProjectOwner         User `json:"projectOwner"`
	PrimaryTechnicalLead User `json:"primaryTechnicalLead"`
	// SecondaryTechnicalLead is validated only when its e-mail is set.
	SecondaryTechnicalLead User `json:"secondaryTechnicalLead" validate:"-"`

	CommonComponents CommonComponents `json:"commonComponents"`

	ProductionQuota  Quota `json:"productionQuota" validate:"-"`
	TestQuota        Quota `json:"testQuota" validate:"-"`
	DevelopmentQuota Quota `json:"developmentQuota" validate:"-"`
	ToolsQuota       Quota `json:"toolsQuota" validate:"-"`
}

// Quota returns the form quota of a namespace.
func (v *Values) Quota(ns models.Namespace) Quota {
	switch ns {
	case models.Production:
		return v.ProductionQuota
	case models.Test:
		return v.TestQuota
	case models.Development:
		return v.DevelopmentQuota
	case models.Tools:
		return v.ToolsQuota
	}
	return Quota{}
}

// SetQuota replaces the form quota of a namespace.
func (v *Values) SetQuota(ns models.Namespace, q Quota) {
	switch ns {
	case models.Production:
		v.ProductionQuota = q
	case models.Test:
		v.TestQuota = q
	case models.Development:
		v.DevelopmentQuota = q
	case models.Tools:
		v.ToolsQuota = q
	}
}

// ToFormModel copies a project into form values. Null leaves become empty
// strings and a missing secondary lead becomes a user with empty sub-fields.
// Persistence-only fields (ids, status, timestamps, active request) are dropped.
func ToFormModel(p *models.Project) Values {
	v := Values{
		LicencePlate: p.LicencePlate,
		Name:         deref(p.Name),
		Description:  deref(p.Description),
		Ministry:     deref(p.Ministry),
		Cluster:      deref(p.Cluster),

		ProjectOwner:         toFormUser(&p.ProjectOwner),
		PrimaryTechnicalLead: toFormUser(&p.PrimaryTechnicalLead),
		// nil yields the empty user
		SecondaryTechnicalLead: toFormUser(p.SecondaryTechnicalLead),

		CommonComponents: CommonComponents{
			AddressAndGeolocation:              p.CommonComponents.AddressAndGeolocation,
			WorkflowManagement:                 p.CommonComponents.WorkflowManagement,
			FormDesignAndSubmission:            p.CommonComponents.FormDesignAndSubmission,
			IdentityManagement:                 p.CommonComponents.IdentityManagement,
			PaymentServices:                    p.CommonComponents.PaymentServices,
			DocumentManagement:                 p.CommonComponents.DocumentManagement,
			EndUserNotificationAndSubscription: p.CommonComponents.EndUserNotificationAndSubscription,
			Publishing:                         p.CommonComponents.Publishing,
			BusinessIntelligence:               p.CommonComponents.BusinessIntelligence,
			NoServices:                         p.CommonComponents.NoServices,
			Other:                              deref(p.CommonComponents.Other),
		},
	}
	for _, ns := range models.Namespaces {
		q := p.Quota(ns)
		v.SetQuota(ns, Quota{CPU: q.CPU, Memory: q.Memory, Storage: q.Storage})
	}
	return v
}

// ToProject builds the requested snapshot of a CREATE request. Empty tier
// selections take the smallest tier of the catalog and empty strings become null.
func ToProject(v Values, catalog *quota.Catalog) *models.Project {
	p := &models.Project{
		LicencePlate: v.LicencePlate,
		Name:         nullable(v.Name),
		Description:  nullable(v.Description),
		Ministry:     nullable(v.Ministry),
		Cluster:      nullable(v.Cluster),
		Status:       models.ProjectActive,

		ProjectOwner:         fromFormUser(v.ProjectOwner),
		PrimaryTechnicalLead: fromFormUser(v.PrimaryTechnicalLead),

		CommonComponents: models.CommonComponents{
			AddressAndGeolocation:              v.CommonComponents.AddressAndGeolocation,
			WorkflowManagement:                 v.CommonComponents.WorkflowManagement,
			FormDesignAndSubmission:            v.CommonComponents.FormDesignAndSubmission,
			IdentityManagement:                 v.CommonComponents.IdentityManagement,
			PaymentServices:                    v.CommonComponents.PaymentServices,
			DocumentManagement:                 v.CommonComponents.DocumentManagement,
			EndUserNotificationAndSubscription: v.CommonComponents.EndUserNotificationAndSubscription,
			Publishing:                         v.CommonComponents.Publishing,
			BusinessIntelligence:               v.CommonComponents.BusinessIntelligence,
			NoServices:                         v.CommonComponents.NoServices,
			Other:                              nullable(v.CommonComponents.Other),
		},
	}
	if !v.SecondaryTechnicalLead.Empty() {
		u := fromFormUser(v.SecondaryTechnicalLead)
		p.SecondaryTechnicalLead = &u
	}
	for _, ns := range models.Namespaces {
		q := v.Quota(ns)
		p.SetQuota(ns, models.QuotaSet{
			CPU:     orDefault(q.CPU, catalog, quota.CPU),
			Memory:  orDefault(q.Memory, catalog, quota.Memory),
			Storage: orDefault(q.Storage, catalog, quota.Storage),
		})
	}
	return p
}

func toFormUser(u *models.User) User {
	if u == nil {
		return User{}
	}
	return User{
		Email:     u.Email,
		FirstName: deref(u.FirstName),
		LastName:  deref(u.LastName),
		Ministry:  deref(u.Ministry),
	}
}

func fromFormUser(u User) models.User {
	return models.User{
		Email:     models.NormalizeEmail(u.Email),
		FirstName: nullable(u.FirstName),
		LastName:  nullable(u.LastName),
		Ministry:  nullable(u.Ministry),
	}
}

func orDefault(key string, catalog *quota.Catalog, kind quota.ResourceKind) string {
	if key == "" {
		return catalog.DefaultTier(kind)
	}
	return key
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
