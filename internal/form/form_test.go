package form

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/quota"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

func testCatalog(t *testing.T) *quota.Catalog {
	t.Helper()
	tiers := []quota.Tier{{Key: "small", Label: "Small"}, {Key: "medium", Label: "Medium"}, {Key: "large", Label: "Large"}}
	c, err := quota.NewCatalog(map[quota.ResourceKind][]quota.Tier{
		quota.CPU:     tiers,
		quota.Memory:  tiers,
		quota.Storage: tiers,
	})
	require.NoError(t, err)
	return c
}

func fullProject() *models.Project {
	small := models.QuotaSet{CPU: "small", Memory: "small", Storage: "small"}
	return &models.Project{
		ID:           uuid.New(),
		LicencePlate: "f00d42",
		Name:         ptr("Registry"),
		Description:  ptr("Tracks projects"),
		Ministry:     ptr("CITZ"),
		Cluster:      ptr("SILVER"),
		Status:       models.ProjectActive,
		ProjectOwner: models.User{
			ID: uuid.New(), Email: "owner@gov.bc.ca",
			FirstName: ptr("Olive"), LastName: ptr("Owner"), Ministry: ptr("CITZ"),
		},
		PrimaryTechnicalLead: models.User{
			ID: uuid.New(), Email: "lead@gov.bc.ca",
			FirstName: ptr("Lee"), LastName: ptr("Lead"), Ministry: ptr("CITZ"),
		},
		SecondaryTechnicalLead: &models.User{
			ID: uuid.New(), Email: "second@gov.bc.ca",
			FirstName: ptr("Sam"), LastName: ptr("Second"), Ministry: ptr("HLTH"),
		},
		CommonComponents: models.CommonComponents{IdentityManagement: true, Other: ptr("kafka")},
		ProductionQuota:  small,
		TestQuota:        small,
		DevelopmentQuota: small,
		ToolsQuota:       small,
	}
}

func sparseProject() *models.Project {
	p := fullProject()
	p.Name = nil
	p.Description = ptr("x")
	p.SecondaryTechnicalLead = nil
	p.ProjectOwner.Ministry = nil
	p.CommonComponents = models.CommonComponents{}
	return p
}

func TestToFormModelNullNormalization(t *testing.T) {
	v := ToFormModel(sparseProject())

	assert.Equal(t, "", v.Name)
	assert.Equal(t, "x", v.Description)
	assert.Equal(t, "", v.ProjectOwner.Ministry)
	assert.Equal(t, User{}, v.SecondaryTechnicalLead)
	assert.Equal(t, "", v.CommonComponents.Other)
	assert.Equal(t, Quota{CPU: "small", Memory: "small", Storage: "small"}, v.ToolsQuota)
}

func TestToFormModelDropsPersistenceFields(t *testing.T) {
	p := fullProject()
	p.ActiveRequest = &models.Request{ID: uuid.New()}

	b, err := json.Marshal(ToFormModel(p))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"id", "status", "activeRequest", "created", "updated"} {
		assert.NotContains(t, m, key)
	}
	assert.NotContains(t, m["projectOwner"], "id")
}

func TestDiffOfUneditedFormIsEmpty(t *testing.T) {
	for name, p := range map[string]*models.Project{
		"full":   fullProject(),
		"sparse": sparseProject(),
	} {
		t.Run(name, func(t *testing.T) {
			patch := Diff(p, ToFormModel(p))
			assert.True(t, patch.IsEmpty())

			b, err := json.Marshal(patch)
			require.NoError(t, err)
			assert.JSONEq(t, `{}`, string(b))
		})
	}
}

func TestDiffNullBaselineAndEmptyCurrentIsUnchanged(t *testing.T) {
	p := sparseProject()
	v := ToFormModel(p)
	v.Name = ""
	v.Description = "y"

	patch := Diff(p, v)
	assert.Nil(t, patch.Name)
	require.NotNil(t, patch.Description)
	assert.Equal(t, "y", *patch.Description)
}

func TestDiffLeafGranularity(t *testing.T) {
	p := fullProject()
	v := ToFormModel(p)
	v.ProductionQuota.CPU = "large"
	v.PrimaryTechnicalLead.LastName = "Leader"
	v.CommonComponents.Publishing = true

	patch := Diff(p, v)

	b, err := json.Marshal(patch)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"productionQuota": {"cpu": "large"},
		"primaryTechnicalLead": {"lastName": "Leader"},
		"commonComponents": {"publishing": true}
	}`, string(b))
}

func TestDiffSecondaryLead(t *testing.T) {
	t.Run("cleared becomes null", func(t *testing.T) {
		p := fullProject()
		v := ToFormModel(p)
		v.SecondaryTechnicalLead = User{}

		patch := Diff(p, v)
		assert.True(t, patch.SecondaryTechnicalLead.Set)
		assert.Nil(t, patch.SecondaryTechnicalLead.Value)

		b, err := json.Marshal(patch)
		require.NoError(t, err)
		assert.JSONEq(t, `{"secondaryTechnicalLead": null}`, string(b))
	})

	t.Run("names without email are ignored", func(t *testing.T) {
		p := sparseProject()
		v := ToFormModel(p)
		v.SecondaryTechnicalLead.FirstName = "Ghost"

		patch := Diff(p, v)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("added lead", func(t *testing.T) {
		p := sparseProject()
		v := ToFormModel(p)
		v.SecondaryTechnicalLead = User{Email: "new@gov.bc.ca", FirstName: "Nia", LastName: "New", Ministry: "AG"}

		patch := Diff(p, v)
		require.True(t, patch.SecondaryTechnicalLead.Set)
		assert.Equal(t, &models.UserPatch{
			Email: ptr("new@gov.bc.ca"), FirstName: ptr("Nia"), LastName: ptr("New"), Ministry: ptr("AG"),
		}, patch.SecondaryTechnicalLead.Value)
	})
}

func TestDiffAppliedReproducesForm(t *testing.T) {
	p := fullProject()
	v := ToFormModel(p)
	v.Name = "Renamed"
	v.Cluster = "GOLD"
	v.ProjectOwner = User{Email: "Boss@gov.bc.ca", FirstName: "Bo", LastName: "Boss", Ministry: "FIN"}
	v.SecondaryTechnicalLead = User{}
	v.CommonComponents.Other = ""
	v.TestQuota = Quota{CPU: "medium", Memory: "large", Storage: "small"}

	patch := Diff(p, v)
	updated := p.Clone()
	patch.ApplyTo(updated)

	got := ToFormModel(updated)
	v.ProjectOwner.Email = "boss@gov.bc.ca"
	assert.Equal(t, v, got)
	assert.Equal(t, uuid.Nil, updated.ProjectOwner.ID)
	assert.Equal(t, p.PrimaryTechnicalLead.ID, updated.PrimaryTechnicalLead.ID)
}

func TestValidate(t *testing.T) {
	catalog := testCatalog(t)

	tests := []struct {
		name   string
		edit   func(v *Values)
		path   string
		reason string
	}{
		{name: "valid", edit: func(v *Values) {}},
		{
			name:   "unknown tier",
			edit:   func(v *Values) { v.ProductionQuota.CPU = "xl" },
			path:   "productionQuota.cpu",
			reason: `unknown cpu tier "xl"`,
		},
		{
			name:   "missing tier",
			edit:   func(v *Values) { v.ToolsQuota.Storage = "" },
			path:   "toolsQuota.storage",
			reason: "required",
		},
		{
			name:   "missing name",
			edit:   func(v *Values) { v.Name = "" },
			path:   "name",
			reason: "required",
		},
		{
			name:   "unknown ministry",
			edit:   func(v *Values) { v.Ministry = "NOPE" },
			path:   "ministry",
			reason: `unknown ministry "NOPE"`,
		},
		{
			name:   "unknown cluster",
			edit:   func(v *Values) { v.Cluster = "MOON" },
			path:   "cluster",
			reason: `unknown cluster "MOON"`,
		},
		{
			name:   "owner email",
			edit:   func(v *Values) { v.ProjectOwner.Email = "not-an-email" },
			path:   "projectOwner.email",
			reason: "must be a valid email address",
		},
		{
			name:   "partial secondary lead",
			edit:   func(v *Values) { v.SecondaryTechnicalLead.FirstName = "" },
			path:   "secondaryTechnicalLead.firstName",
			reason: "required",
		},
		{
			name: "absent secondary lead",
			edit: func(v *Values) { v.SecondaryTechnicalLead = User{FirstName: "ignored"} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ToFormModel(fullProject())
			tt.edit(&v)

			res := Validate(v, catalog)
			if tt.path == "" {
				assert.True(t, res.Valid(), "%+v", res.Errors)
				assert.NoError(t, res.Err())
				return
			}
			require.Len(t, res.Errors, 1)
			assert.Equal(t, FieldError{Path: tt.path, Reason: tt.reason}, res.Errors[0])

			err := res.Err()
			assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
			assert.Equal(t, tt.path, appErr.Field(err))
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	res := Validate(Values{}, testCatalog(t))

	paths := make([]string, 0, len(res.Errors))
	for _, fe := range res.Errors {
		paths = append(paths, fe.Path)
	}
	assert.Contains(t, paths, "name")
	assert.Contains(t, paths, "primaryTechnicalLead.email")
	assert.Contains(t, paths, "developmentQuota.memory")
	assert.NotContains(t, paths, "secondaryTechnicalLead.email")
}

func TestToProjectAppliesDefaults(t *testing.T) {
	catalog := testCatalog(t)
	v := ToFormModel(sparseProject())
	v.Name = "New"
	v.ProductionQuota = Quota{CPU: "large"}
	v.ProjectOwner.Email = " Owner@Gov.bc.ca "

	p := ToProject(v, catalog)

	assert.Equal(t, "New", *p.Name)
	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, "owner@gov.bc.ca", p.ProjectOwner.Email)
	assert.Nil(t, p.ProjectOwner.Ministry)
	assert.Nil(t, p.SecondaryTechnicalLead)
	assert.Nil(t, p.CommonComponents.Other)
	assert.Equal(t, models.QuotaSet{CPU: "large", Memory: "small", Storage: "small"}, p.ProductionQuota)
}
