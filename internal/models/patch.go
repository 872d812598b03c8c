package models

import (
	"bytes"
	"encoding/json"
)

// UserPatch carries the dirty sub-fields of a user reference.
type UserPatch struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Ministry  *string `json:"ministry,omitempty"`
}

// IsEmpty reports whether no sub-field is dirty.
func (u *UserPatch) IsEmpty() bool {
	return u == nil || (u.Email == nil && u.FirstName == nil && u.LastName == nil && u.Ministry == nil)
}

// QuotaPatch carries the dirty tier selections of one namespace.
type QuotaPatch struct {
	CPU     *string `json:"cpu,omitempty"`
	Memory  *string `json:"memory,omitempty"`
	Storage *string `json:"storage,omitempty"`
}

func (q *QuotaPatch) IsEmpty() bool {
	return q == nil || (q.CPU == nil && q.Memory == nil && q.Storage == nil)
}

// CommonComponentsPatch carries the dirty service-usage flags.
type CommonComponentsPatch struct {
	AddressAndGeolocation              *bool   `json:"addressAndGeolocation,omitempty"`
	WorkflowManagement                 *bool   `json:"workflowManagement,omitempty"`
	FormDesignAndSubmission            *bool   `json:"formDesignAndSubmission,omitempty"`
	IdentityManagement                 *bool   `json:"identityManagement,omitempty"`
	PaymentServices                    *bool   `json:"paymentServices,omitempty"`
	DocumentManagement                 *bool   `json:"documentManagement,omitempty"`
	EndUserNotificationAndSubscription *bool   `json:"endUserNotificationAndSubscription,omitempty"`
	Publishing                         *bool   `json:"publishing,omitempty"`
	BusinessIntelligence               *bool   `json:"businessIntelligence,omitempty"`
	NoServices                         *bool   `json:"noServices,omitempty"`
	Other                              *string `json:"other,omitempty"`
}

func (c *CommonComponentsPatch) IsEmpty() bool {
	return c == nil || *c == CommonComponentsPatch{}
}

// OptionalUserPatch is a patch entry for a nullable user reference. When Set
// is false the field is absent from the patch; when Set is true and Value is
// nil the reference is cleared.
type OptionalUserPatch struct {
	Set   bool
	Value *UserPatch
}

// ProjectPatch is a dirty-field diff against a project. Absent fields are
// left untouched when the patch is applied. An empty string for a nullable
// scalar clears it.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Ministry    *string `json:"ministry,omitempty"`
	Cluster     *string `json:"cluster,omitempty"`

	ProjectOwner           *UserPatch        `json:"projectOwner,omitempty"`
	PrimaryTechnicalLead   *UserPatch        `json:"primaryTechnicalLead,omitempty"`
	SecondaryTechnicalLead OptionalUserPatch `json:"-"`

	CommonComponents *CommonComponentsPatch `json:"commonComponents,omitempty"`

	ProductionQuota  *QuotaPatch `json:"productionQuota,omitempty"`
	TestQuota        *QuotaPatch `json:"testQuota,omitempty"`
	DevelopmentQuota *QuotaPatch `json:"developmentQuota,omitempty"`
	ToolsQuota       *QuotaPatch `json:"toolsQuota,omitempty"`
}

const secondaryLeadKey = "secondaryTechnicalLead"

type patchFields ProjectPatch

// MarshalJSON writes a cleared secondary lead as null and omits it when absent.
func (p ProjectPatch) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(patchFields(p))
	if err != nil || !p.SecondaryTechnicalLead.Set {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	lead := json.RawMessage("null")
	if p.SecondaryTechnicalLead.Value != nil {
		if lead, err = json.Marshal(p.SecondaryTechnicalLead.Value); err != nil {
			return nil, err
		}
	}
	m[secondaryLeadKey] = lead
	return json.Marshal(m)
}

func (p *ProjectPatch) UnmarshalJSON(b []byte) error {
	var f patchFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*p = ProjectPatch(f)
	if raw, ok := m[secondaryLeadKey]; ok {
		p.SecondaryTechnicalLead.Set = true
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			var u UserPatch
			if err := json.Unmarshal(raw, &u); err != nil {
				return err
			}
			p.SecondaryTechnicalLead.Value = &u
		}
	}
	return nil
}

// Quota returns the patch entry of a namespace.
func (p *ProjectPatch) Quota(ns Namespace) *QuotaPatch {
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
	return nil
}

// SetQuota stores the patch entry of a namespace; empty entries are dropped.
func (p *ProjectPatch) SetQuota(ns Namespace, q *QuotaPatch) {
	if q.IsEmpty() {
		q = nil
	}
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

// IsEmpty reports whether the patch changes nothing.
func (p *ProjectPatch) IsEmpty() bool {
	if p.Name != nil || p.Description != nil || p.Ministry != nil || p.Cluster != nil {
		return false
	}
	if !p.ProjectOwner.IsEmpty() || !p.PrimaryTechnicalLead.IsEmpty() || p.SecondaryTechnicalLead.Set {
		return false
	}
	if !p.CommonComponents.IsEmpty() {
		return false
	}
	for _, ns := range Namespaces {
		if !p.Quota(ns).IsEmpty() {
			return false
		}
	}
	return true
}

// ApplyTo merges the patch into project. Fields absent from the patch are untouched.
func (p *ProjectPatch) ApplyTo(project *Project) {
	applyNullable(&project.Name, p.Name)
	applyNullable(&project.Description, p.Description)
	applyNullable(&project.Ministry, p.Ministry)
	applyNullable(&project.Cluster, p.Cluster)

	applyUser(&project.ProjectOwner, p.ProjectOwner)
	applyUser(&project.PrimaryTechnicalLead, p.PrimaryTechnicalLead)
	if p.SecondaryTechnicalLead.Set {
		if p.SecondaryTechnicalLead.Value == nil {
			project.SecondaryTechnicalLead = nil
			project.SecondaryTechnicalLeadID = nil
		} else {
			if project.SecondaryTechnicalLead == nil {
				project.SecondaryTechnicalLead = &User{}
			}
			applyUser(project.SecondaryTechnicalLead, p.SecondaryTechnicalLead.Value)
		}
	}

	if c := p.CommonComponents; c != nil {
		cc := &project.CommonComponents
		applyBool(&cc.AddressAndGeolocation, c.AddressAndGeolocation)
		applyBool(&cc.WorkflowManagement, c.WorkflowManagement)
		applyBool(&cc.FormDesignAndSubmission, c.FormDesignAndSubmission)
		applyBool(&cc.IdentityManagement, c.IdentityManagement)
		applyBool(&cc.PaymentServices, c.PaymentServices)
		applyBool(&cc.DocumentManagement, c.DocumentManagement)
		applyBool(&cc.EndUserNotificationAndSubscription, c.EndUserNotificationAndSubscription)
		applyBool(&cc.Publishing, c.Publishing)
		applyBool(&cc.BusinessIntelligence, c.BusinessIntelligence)
		applyBool(&cc.NoServices, c.NoServices)
		applyNullable(&cc.Other, c.Other)
	}

	for _, ns := range Namespaces {
		q := p.Quota(ns)
		if q == nil {
			continue
		}
		set := project.Quota(ns)
		applyString(&set.CPU, q.CPU)
		applyString(&set.Memory, q.Memory)
		applyString(&set.Storage, q.Storage)
		project.SetQuota(ns, set)
	}
}

func applyUser(u *User, p *UserPatch) {
	if p == nil {
		return
	}
	if p.Email != nil && NormalizeEmail(*p.Email) != NormalizeEmail(u.Email) {
		// A different e-mail is a different person; the repository resolves the id.
		*u = User{Email: NormalizeEmail(*p.Email), FirstName: u.FirstName, LastName: u.LastName, Ministry: u.Ministry}
	}
	applyNullable(&u.FirstName, p.FirstName)
	applyNullable(&u.LastName, p.LastName)
	applyNullable(&u.Ministry, p.Ministry)
}

func applyNullable(dst **string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		*dst = nil
		return
	}
	s := *v
	*dst = &s
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func applyBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
