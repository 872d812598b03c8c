package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/okanji/platform-services-registry-web/internal/events"
	"github.com/okanji/platform-services-registry-web/internal/form"
	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/quota"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
	"github.com/okanji/platform-services-registry-web/pkg/utils"
)

// RequestService records change requests and enforces that a project has at
// most one active request.
type RequestService interface {
	CreateRequest(ctx context.Context, caller Caller, input *CreateRequestInput) (*models.Request, error)
	ListActive(ctx context.Context, caller Caller) ([]models.Request, error)
	GetRequest(ctx context.Context, caller Caller, requestID uuid.UUID) (*RequestDetail, error)
}

type CreateRequestInput struct {
	Type models.RequestType
	// ProjectID must be nil for CREATE and set for every other type.
	ProjectID *uuid.UUID
	// Form is required for CREATE and EDIT and ignored otherwise.
	Form *form.Values
}

// RequestDetail is a request together with the project as it is now, for
// comparing requested and current values. Current is nil until a CREATE is approved.
type RequestDetail struct {
	Request *models.Request `json:"request"`
	Current *models.Project `json:"current,omitempty"`
}

type requestService struct {
	catalog     *quota.Catalog
	projectRepo repository.ProjectRepository
	requestRepo repository.RequestRepository
	publisher   InvalidationPublisher
	newPlate    func() string
}

// plateAttempts bounds how often a CREATE request draws a new licence plate
// after the drawn one turned out to be taken.
const plateAttempts = 5

func NewRequestService(catalog *quota.Catalog, projectRepo repository.ProjectRepository, requestRepo repository.RequestRepository, publisher InvalidationPublisher) RequestService {
	return &requestService{catalog: catalog, projectRepo: projectRepo, requestRepo: requestRepo, publisher: publisher, newPlate: utils.LicencePlate}
}

var _ RequestService = (*requestService)(nil)

func (s *requestService) CreateRequest(ctx context.Context, caller Caller, input *CreateRequestInput) (*models.Request, error) {
	logger.L().Info("create request",
		zap.String("type", string(input.Type)),
		zap.String("caller", caller.Email),
		zap.String("role", string(caller.Role)))

	req, err := s.buildRequest(ctx, caller, input)
	if err != nil {
		requestsRefused.WithLabelValues(string(appErr.CodeOf(err))).Inc()
		return nil, err
	}

	if err := s.record(ctx, req); err != nil {
		requestsRefused.WithLabelValues(string(appErr.CodeOf(err))).Inc()
		return nil, err
	}
	requestsCreated.WithLabelValues(string(req.Type)).Inc()

	invalidate(ctx, s.publisher, events.RequestCreated, req)

	logger.L().Info("request created",
		zap.String("request_id", req.ID.String()),
		zap.String("licence_plate", req.LicencePlate),
		zap.String("type", string(req.Type)))
	return req, nil
}

// record stores req. A CREATE request whose plate is already taken draws a
// fresh one and tries again.
func (s *requestService) record(ctx context.Context, req *models.Request) error {
	for attempt := 1; ; attempt++ {
		err := s.requestRepo.CreateActive(ctx, req)
		if err == nil || req.Type != models.RequestCreate ||
			!errors.Is(err, repository.ErrLicencePlateTaken) || attempt == plateAttempts {
			return err
		}
		logger.L().Warn("licence plate taken, drawing another",
			zap.String("licence_plate", req.LicencePlate),
			zap.Int("attempt", attempt))
		assignPlate(req, s.newPlate())
	}
}

func assignPlate(req *models.Request, plate string) {
	snap := req.Snapshot()
	snap.LicencePlate = plate
	req.LicencePlate = plate
	req.RequestedProject = datatypes.NewJSONType(snap)
}

func (s *requestService) buildRequest(ctx context.Context, caller Caller, input *CreateRequestInput) (*models.Request, error) {
	if !input.Type.Valid() {
		return nil, appErr.Validation("type", fmt.Sprintf("unknown request type %q", input.Type))
	}
	if input.Type == models.RequestCreate {
		return s.buildCreate(caller, input)
	}

	if input.ProjectID == nil {
		return nil, appErr.Validation("projectId", "required")
	}
	if input.Type == models.RequestReprovision && !caller.IsAdmin() {
		return nil, appErr.Forbidden("only administrators may request re-provisioning")
	}

	current, err := s.projectRepo.Get(ctx, *input.ProjectID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.ProjectDeleted {
		return nil, appErr.NotFound(fmt.Sprintf("project %s not found", current.ID))
	}
	if !caller.canSee(current) {
		return nil, appErr.Forbidden("caller is not a contact of the project")
	}
	// Fast path; the repository re-checks atomically.
	if !current.IsEditable() {
		return nil, appErr.Conflict("project already has an active request")
	}

	requested := current.Clone()
	var patch models.ProjectPatch
	if input.Type == models.RequestEdit {
		if input.Form == nil {
			return nil, appErr.Validation("form", "required")
		}
		if err := form.Validate(*input.Form, s.catalog).Err(); err != nil {
			return nil, err
		}
		patch = form.Diff(current, *input.Form)
		if patch.IsEmpty() {
			return nil, appErr.Validation("form", "no changes")
		}
		patch.ApplyTo(requested)
	}

	req := newPendingRequest(input.Type, caller, requested, current.Contacts())
	req.ProjectID = &current.ID
	if input.Type == models.RequestEdit {
		req.Patch = datatypes.NewJSONType(patch)
	}
	return req, nil
}

func (s *requestService) buildCreate(caller Caller, input *CreateRequestInput) (*models.Request, error) {
	if input.ProjectID != nil {
		return nil, appErr.Validation("projectId", "must be absent for CREATE")
	}
	if input.Form == nil {
		return nil, appErr.Validation("form", "required")
	}

	values := *input.Form
	// The create form carries no quota inputs; start every namespace at the smallest tiers.
	requested := form.ToProject(values, s.catalog)
	values = form.ToFormModel(requested)
	if err := form.Validate(values, s.catalog).Err(); err != nil {
		return nil, err
	}
	requested.LicencePlate = s.newPlate()

	return newPendingRequest(models.RequestCreate, caller, requested, nil), nil
}

func newPendingRequest(typ models.RequestType, caller Caller, requested *models.Project, contacts []string) *models.Request {
	requested.ActiveRequest = nil
	participants := append(contacts, requested.Contacts()...)
	return &models.Request{
		Type:             typ,
		DecisionStatus:   models.DecisionPending,
		Active:           true,
		LicencePlate:     requested.LicencePlate,
		CreatedBy:        models.NormalizeEmail(caller.Email),
		RequestedProject: datatypes.NewJSONType(*requested),
		Participants:     pq.StringArray(dedupe(participants)),
	}
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *requestService) ListActive(ctx context.Context, caller Caller) ([]models.Request, error) {
	logger.L().Info("list active requests", zap.String("caller", caller.Email), zap.String("role", string(caller.Role)))

	scope := repository.RequestScope{}
	if !caller.IsAdmin() {
		scope.Participant = caller.Email
	}
	return s.requestRepo.ListActive(ctx, scope)
}

func (s *requestService) GetRequest(ctx context.Context, caller Caller, requestID uuid.UUID) (*RequestDetail, error) {
	logger.L().Info("get request", zap.String("request_id", requestID.String()), zap.String("caller", caller.Email))

	var req models.Request
	if err := s.requestRepo.GetByID(ctx, requestID, &req); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !req.HasParticipant(caller.Email) {
		return nil, appErr.Forbidden("caller may not view this request")
	}

	detail := &RequestDetail{Request: &req}
	if req.ProjectID != nil {
		current, err := s.projectRepo.Get(ctx, *req.ProjectID)
		if err != nil && !appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, err
		}
		detail.Current = current
	}
	return detail, nil
}
