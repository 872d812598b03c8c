package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/events"
	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/provisioner"
	"github.com/okanji/platform-services-registry-web/internal/queue/tasks"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

// DecisionService resolves pending requests. PENDING moves to APPROVED or
// REJECTED exactly once; both are terminal.
type DecisionService interface {
	Decide(ctx context.Context, caller Caller, input *DecisionInput) (*models.Request, error)
}

type DecisionInput struct {
	RequestID uuid.UUID
	Decision  models.DecisionStatus
	Comment   *string
}

type decisionService struct {
	projectRepo repository.ProjectRepository
	requestRepo repository.RequestRepository
	publisher   InvalidationPublisher
	sink        ProvisioningSink
	now         func() time.Time
}

func NewDecisionService(projectRepo repository.ProjectRepository, requestRepo repository.RequestRepository, publisher InvalidationPublisher, sink ProvisioningSink) DecisionService {
	return &decisionService{
		projectRepo: projectRepo,
		requestRepo: requestRepo,
		publisher:   publisher,
		sink:        sink,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ DecisionService = (*decisionService)(nil)

func (s *decisionService) Decide(ctx context.Context, caller Caller, input *DecisionInput) (*models.Request, error) {
	logger.L().Info("decide request",
		zap.String("request_id", input.RequestID.String()),
		zap.String("decision", string(input.Decision)),
		zap.String("caller", caller.Email))

	if !caller.IsAdmin() {
		return nil, appErr.Forbidden("only administrators may decide requests")
	}
	if input.Decision != models.DecisionApproved && input.Decision != models.DecisionRejected {
		return nil, appErr.Validation("decision", fmt.Sprintf("must be %s or %s", models.DecisionApproved, models.DecisionRejected))
	}

	var req models.Request
	if err := s.requestRepo.GetByID(ctx, input.RequestID, &req); err != nil {
		return nil, err
	}
	if !req.Pending() {
		return nil, appErr.StaleDecision(fmt.Sprintf("request %s is already %s", req.ID, req.DecisionStatus))
	}

	effect, err := s.effectOf(ctx, &req, input.Decision)
	if err != nil {
		return nil, err
	}

	decidedAt := s.now()
	maker := models.NormalizeEmail(caller.Email)
	req.DecisionStatus = input.Decision
	req.Active = false
	req.DecisionMaker = &maker
	req.DecisionDate = &decidedAt
	req.HumanComment = input.Comment

	if err := s.requestRepo.Resolve(ctx, &req, effect); err != nil {
		return nil, err
	}
	decisionsTotal.WithLabelValues(string(req.Type), string(req.DecisionStatus)).Inc()

	reason := events.RequestRejected
	if req.DecisionStatus == models.DecisionApproved {
		reason = events.RequestApproved
		s.handOff(ctx, &req)
	}
	invalidate(ctx, s.publisher, reason, &req)

	logger.L().Info("request decided",
		zap.String("request_id", req.ID.String()),
		zap.String("licence_plate", req.LicencePlate),
		zap.String("decision", string(req.DecisionStatus)))
	return &req, nil
}

// effectOf computes the project change an approval makes. EDIT patches are
// applied to the live project, so fields outside the patch keep their current values.
func (s *decisionService) effectOf(ctx context.Context, req *models.Request, decision models.DecisionStatus) (repository.Effect, error) {
	if decision == models.DecisionRejected {
		return repository.Effect{Kind: repository.EffectNone}, nil
	}

	switch req.Type {
	case models.RequestCreate:
		p := req.Snapshot()
		return repository.Effect{Kind: repository.EffectCreate, Project: &p}, nil
	case models.RequestReprovision:
		return repository.Effect{Kind: repository.EffectNone}, nil
	}

	if req.ProjectID == nil {
		return repository.Effect{}, appErr.New(appErr.CodeInternal, fmt.Sprintf("%s request %s has no project", req.Type, req.ID))
	}
	current, err := s.projectRepo.Get(ctx, *req.ProjectID)
	if err != nil {
		return repository.Effect{}, err
	}

	if req.Type == models.RequestDelete {
		return repository.Effect{Kind: repository.EffectArchive, Project: current}, nil
	}
	updated := current.Clone()
	patch := req.Diff()
	patch.ApplyTo(updated)
	return repository.Effect{Kind: repository.EffectUpdate, Project: updated}, nil
}

// handOff queues the provisioning intent. Fulfillment is not awaited and a
// failed enqueue does not undo the decision.
func (s *decisionService) handOff(ctx context.Context, req *models.Request) {
	if s.sink == nil || req.ProjectID == nil {
		return
	}
	kind, err := provisioner.KindFor(req.Type)
	if err != nil {
		logger.L().Error("no provisioning kind for request", zap.Error(err), zap.String("request_id", req.ID.String()))
		return
	}
	payload := tasks.ProvisionPayload{
		RequestID:    req.ID.String(),
		ProjectID:    req.ProjectID.String(),
		LicencePlate: req.LicencePlate,
		Kind:         kind,
	}
	if err := s.sink.Provision(ctx, payload); err != nil {
		logger.L().Error("provisioning hand-off failed",
			zap.Error(err),
			zap.String("request_id", req.ID.String()),
			zap.String("kind", string(kind)))
	}
}
