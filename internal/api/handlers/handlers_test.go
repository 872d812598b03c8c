package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okanji/platform-services-registry-web/internal/api/middleware"
	"github.com/okanji/platform-services-registry-web/internal/api/types"
	"github.com/okanji/platform-services-registry-web/internal/events"
	"github.com/okanji/platform-services-registry-web/internal/form"
	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/quota"
	"github.com/okanji/platform-services-registry-web/internal/services"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockProjectService struct {
	mock.Mock
}

func (m *mockProjectService) GetProject(ctx context.Context, caller services.Caller, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectService) ListProjects(ctx context.Context, caller services.Caller) ([]models.Project, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *mockProjectService) PreviewDiff(ctx context.Context, caller services.Caller, id uuid.UUID, values form.Values) (models.ProjectPatch, error) {
	args := m.Called(ctx, caller, id, values)
	return args.Get(0).(models.ProjectPatch), args.Error(1)
}

type mockRequestService struct {
	mock.Mock
}

func (m *mockRequestService) CreateRequest(ctx context.Context, caller services.Caller, input *services.CreateRequestInput) (*models.Request, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestService) ListActive(ctx context.Context, caller services.Caller) ([]models.Request, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *mockRequestService) GetRequest(ctx context.Context, caller services.Caller, id uuid.UUID) (*services.RequestDetail, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RequestDetail), args.Error(1)
}

type mockDecisionService struct {
	mock.Mock
}

func (m *mockDecisionService) Decide(ctx context.Context, caller services.Caller, input *services.DecisionInput) (*models.Request, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

var (
	admin = services.Caller{Email: "admin@gov.bc.ca", Role: services.RoleAdmin}
	owner = services.Caller{Email: "owner@gov.bc.ca", Role: services.RoleUser}
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	projects  *mockProjectService
	requests  *mockRequestService
	decisions *mockDecisionService
	router    chi.Router
}

func newFixture(t *testing.T, caller services.Caller) *fixture {
	t.Helper()
	f := &fixture{projects: &mockProjectService{}, requests: &mockRequestService{}, decisions: &mockDecisionService{}}
	catalog := quota.Default()

	ph := NewProjectsHandler(f.projects)
	rh := NewRequestsHandler(f.requests, f.decisions)
	qh := NewQuotaHandler(catalog)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithCaller(req.Context(), caller)))
		})
	})
	r.Get("/quota-options/{kind}", qh.Options)
	r.Get("/projects", ph.List)
	r.Get("/projects/{id}", ph.Get)
	r.Post("/projects/{id}/diff", ph.Diff)
	r.Post("/requests", rh.Create)
	r.Get("/requests/active", rh.Active)
	r.Get("/requests/{id}", rh.Get)
	r.Post("/requests/{id}/decision", rh.Decide)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr, resp
}

func errorCode(resp map[string]any) string {
	e, _ := resp["error"].(map[string]any)
	s, _ := e["code"].(string)
	return s
}

func TestQuotaOptions(t *testing.T) {
	f := newFixture(t, owner)

	rr, resp := f.do(t, http.MethodGet, "/quota-options/cpu", "")
	require.Equal(t, http.StatusOK, rr.Code)
	tiers := resp["data"].([]any)
	assert.NotEmpty(t, tiers)
	assert.Contains(t, tiers[0].(map[string]any), "key")

	rr, resp = f.do(t, http.MethodGet, "/quota-options/gpu", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid", errorCode(resp))
}

func TestGetProjectIncludesFormModelAndEditable(t *testing.T) {
	f := newFixture(t, owner)
	id := uuid.New()
	p := &models.Project{ID: id, LicencePlate: "ab12cd", Name: ptr("Registry"), ActiveRequest: &models.Request{ID: uuid.New()}}
	f.projects.On("GetProject", mock.Anything, owner, id).Return(p, nil)

	rr, resp := f.do(t, http.MethodGet, "/projects/"+id.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	data := resp["data"].(map[string]any)
	assert.Equal(t, false, data["editable"])
	assert.Equal(t, "Registry", data["form"].(map[string]any)["name"])
	assert.Equal(t, "", data["form"].(map[string]any)["description"])
}

func TestGetProjectErrors(t *testing.T) {
	f := newFixture(t, owner)
	missing := uuid.New()
	f.projects.On("GetProject", mock.Anything, owner, missing).Return(nil, appErr.NotFound("project not found"))

	rr, resp := f.do(t, http.MethodGet, "/projects/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", errorCode(resp))

	rr, resp = f.do(t, http.MethodGet, "/projects/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid", errorCode(resp))
}

func TestDiffPreview(t *testing.T) {
	f := newFixture(t, owner)
	id := uuid.New()
	f.projects.On("PreviewDiff", mock.Anything, owner, id, mock.MatchedBy(func(v form.Values) bool {
		return v.Name == "Renamed"
	})).Return(models.ProjectPatch{Name: ptr("Renamed")}, nil)

	rr, resp := f.do(t, http.MethodPost, "/projects/"+id.String()+"/diff", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"name": "Renamed"}, resp["data"])
}

func TestCreateRequest(t *testing.T) {
	f := newFixture(t, owner)
	pid := uuid.New()
	created := &models.Request{ID: uuid.New(), Type: models.RequestEdit, DecisionStatus: models.DecisionPending, Active: true, ProjectID: &pid}
	f.requests.On("CreateRequest", mock.Anything, owner, mock.MatchedBy(func(in *services.CreateRequestInput) bool {
		return in.Type == models.RequestEdit && *in.ProjectID == pid && in.Form != nil && in.Form.Name == "Renamed"
	})).Return(created, nil)

	body := `{"type":"EDIT","projectId":"` + pid.String() + `","form":{"name":"Renamed"}}`
	rr, resp := f.do(t, http.MethodPost, "/requests", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "PENDING", resp["data"].(map[string]any)["decisionStatus"])
	f.requests.AssertExpectations(t)
}

func TestCreateRequestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", appErr.Conflict("project already has an active request"), http.StatusConflict, "conflict"},
		{"forbidden", appErr.Forbidden("no"), http.StatusForbidden, "forbidden"},
		{"validation", appErr.Validation("productionQuota.cpu", `unknown cpu tier "xl"`), http.StatusBadRequest, "invalid"},
		{"transport", appErr.Transport(assert.AnError, "create request failed"), http.StatusBadGateway, "transport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, owner)
			f.requests.On("CreateRequest", mock.Anything, owner, mock.Anything).Return(nil, tt.err)

			rr, resp := f.do(t, http.MethodPost, "/requests", `{"type":"DELETE","projectId":"`+uuid.NewString()+`"}`)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(resp))
		})
	}
}

func TestValidationErrorCarriesFieldPaths(t *testing.T) {
	f := newFixture(t, owner)
	verr := appErr.Validation("name", "required").WithMeta(appErr.MetaFields, []form.FieldError{
		{Path: "name", Reason: "required"},
		{Path: "productionQuota.cpu", Reason: `unknown cpu tier "xl"`},
	})
	f.requests.On("CreateRequest", mock.Anything, owner, mock.Anything).Return(nil, verr)

	rr, _ := f.do(t, http.MethodPost, "/requests", `{"type":"CREATE","form":{}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp types.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []types.FieldError{
		{Path: "name", Reason: "required"},
		{Path: "productionQuota.cpu", Reason: `unknown cpu tier "xl"`},
	}, resp.Error.Fields)
}

func TestCreateRequestRejectsMalformedBody(t *testing.T) {
	f := newFixture(t, owner)
	rr, resp := f.do(t, http.MethodPost, "/requests", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid", errorCode(resp))
	f.requests.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestActiveAndDetail(t *testing.T) {
	f := newFixture(t, owner)
	id := uuid.New()
	f.requests.On("ListActive", mock.Anything, owner).Return([]models.Request{{ID: id}}, nil)
	f.requests.On("GetRequest", mock.Anything, owner, id).Return(&services.RequestDetail{
		Request: &models.Request{ID: id},
		Current: &models.Project{Name: ptr("Registry")},
	}, nil)

	rr, resp := f.do(t, http.MethodGet, "/requests/active", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, resp["data"], 1)
	assert.Equal(t, float64(1), resp["meta"].(map[string]any)["total"])

	rr, resp = f.do(t, http.MethodGet, "/requests/"+id.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Registry", resp["data"].(map[string]any)["current"].(map[string]any)["name"])
}

func TestDecide(t *testing.T) {
	f := newFixture(t, admin)
	id := uuid.New()
	f.decisions.On("Decide", mock.Anything, admin, &services.DecisionInput{
		RequestID: id,
		Decision:  models.DecisionApproved,
		Comment:   ptr("ship it"),
	}).Return(&models.Request{ID: id, DecisionStatus: models.DecisionApproved}, nil).Once()
	f.decisions.On("Decide", mock.Anything, admin, mock.Anything).Return(nil, appErr.StaleDecision("already APPROVED"))

	rr, resp := f.do(t, http.MethodPost, "/requests/"+id.String()+"/decision", `{"decision":"APPROVED","comment":"ship it"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "APPROVED", resp["data"].(map[string]any)["decisionStatus"])

	rr, resp = f.do(t, http.MethodPost, "/requests/"+id.String()+"/decision", `{"decision":"REJECTED"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "stale_decision", errorCode(resp))
}

type fakeHub struct {
	ch chan events.Invalidation
}

func (h *fakeHub) Subscribe(int) (<-chan events.Invalidation, func()) {
	return h.ch, func() {}
}

func TestEventStream(t *testing.T) {
	hub := &fakeHub{ch: make(chan events.Invalidation, 1)}
	eh := NewEventsHandler(hub, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eh.Stream(w, r.WithContext(middleware.WithCaller(r.Context(), owner)))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	hub.ch <- events.Invalidation{Reason: events.RequestCreated, Scopes: []string{events.ProjectRequests("ab12cd")}, LicencePlate: "ab12cd"}

	var got events.Invalidation
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, events.RequestCreated, got.Reason)
	assert.Equal(t, "ab12cd", got.LicencePlate)
}

func TestEventStreamRequiresCaller(t *testing.T) {
	eh := NewEventsHandler(&fakeHub{ch: make(chan events.Invalidation)}, nil)
	rr := httptest.NewRecorder()
	eh.Stream(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
