package form

import (
	"github.com/okanji/platform-services-registry-web/internal/models"
)

// Diff returns the leaf fields of current that differ from baseline. The
// baseline is compared in its form shape, so a null baseline leaf and an
// empty current value are equal. Nested objects without dirty leaves are
// omitted and a secondary lead with an empty e-mail is recorded as null.
func Diff(baseline *models.Project, current Values) models.ProjectPatch {
	base := ToFormModel(baseline)
	var p models.ProjectPatch

	p.Name = dirty(base.Name, current.Name)
	p.Description = dirty(base.Description, current.Description)
	p.Ministry = dirty(base.Ministry, current.Ministry)
	p.Cluster = dirty(base.Cluster, current.Cluster)

	p.ProjectOwner = diffUser(base.ProjectOwner, current.ProjectOwner)
	p.PrimaryTechnicalLead = diffUser(base.PrimaryTechnicalLead, current.PrimaryTechnicalLead)
	p.SecondaryTechnicalLead = diffOptionalUser(base.SecondaryTechnicalLead, current.SecondaryTechnicalLead)

	p.CommonComponents = diffComponents(base.CommonComponents, current.CommonComponents)

	for _, ns := range models.Namespaces {
		b, c := base.Quota(ns), current.Quota(ns)
		p.SetQuota(ns, &models.QuotaPatch{
			CPU:     dirty(b.CPU, c.CPU),
			Memory:  dirty(b.Memory, c.Memory),
			Storage: dirty(b.Storage, c.Storage),
		})
	}
	return p
}

func diffUser(base, cur User) *models.UserPatch {
	u := &models.UserPatch{
		FirstName: dirty(base.FirstName, cur.FirstName),
		LastName:  dirty(base.LastName, cur.LastName),
		Ministry:  dirty(base.Ministry, cur.Ministry),
	}
	if models.NormalizeEmail(base.Email) != models.NormalizeEmail(cur.Email) {
		e := models.NormalizeEmail(cur.Email)
		u.Email = &e
	}
	if u.IsEmpty() {
		return nil
	}
	return u
}

func diffOptionalUser(base, cur User) models.OptionalUserPatch {
	if cur.Empty() {
		if base.Empty() {
			return models.OptionalUserPatch{}
		}
		return models.OptionalUserPatch{Set: true}
	}
	if u := diffUser(base, cur); u != nil {
		return models.OptionalUserPatch{Set: true, Value: u}
	}
	return models.OptionalUserPatch{}
}

func diffComponents(base, cur CommonComponents) *models.CommonComponentsPatch {
	c := &models.CommonComponentsPatch{
		AddressAndGeolocation:              dirtyBool(base.AddressAndGeolocation, cur.AddressAndGeolocation),
		WorkflowManagement:                 dirtyBool(base.WorkflowManagement, cur.WorkflowManagement),
		FormDesignAndSubmission:            dirtyBool(base.FormDesignAndSubmission, cur.FormDesignAndSubmission),
		IdentityManagement:                 dirtyBool(base.IdentityManagement, cur.IdentityManagement),
		PaymentServices:                    dirtyBool(base.PaymentServices, cur.PaymentServices),
		DocumentManagement:                 dirtyBool(base.DocumentManagement, cur.DocumentManagement),
		EndUserNotificationAndSubscription: dirtyBool(base.EndUserNotificationAndSubscription, cur.EndUserNotificationAndSubscription),
		Publishing:                         dirtyBool(base.Publishing, cur.Publishing),
		BusinessIntelligence:               dirtyBool(base.BusinessIntelligence, cur.BusinessIntelligence),
		NoServices:                         dirtyBool(base.NoServices, cur.NoServices),
		Other:                              dirty(base.Other, cur.Other),
	}
	if c.IsEmpty() {
		return nil
	}
	return c
}

func dirty(base, cur string) *string {
	if base == cur {
		return nil
	}
	return &cur
}

func dirtyBool(base, cur bool) *bool {
	if base == cur {
		return nil
	}
	return &cur
}
