package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/provisioner"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

// TypeProvisionIntent is the asynq task type carrying an approved request to fulfillment.
const TypeProvisionIntent = "project:provision-intent"

// ProvisionPayload is the task payload for provisioning intents.
type ProvisionPayload struct {
	RequestID    string           `json:"request_id"`
	ProjectID    string           `json:"project_id"`
	LicencePlate string           `json:"licence_plate"`
	Kind         provisioner.Kind `json:"kind"`
}

// NewProvisionTask builds the task for an approved request.
func NewProvisionTask(p ProvisionPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	// One task per request; a duplicate enqueue is rejected by asynq.
	return asynq.NewTask(TypeProvisionIntent, b, asynq.TaskID("provision:"+p.RequestID), asynq.MaxRetry(10)), nil
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer queues provisioning intents for the worker.
type Enqueuer struct {
	client taskClient
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// Provision enqueues p. The outcome of fulfillment is not awaited.
func (e *Enqueuer) Provision(ctx context.Context, p ProvisionPayload) error {
	task, err := NewProvisionTask(p)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "encode provision task failed")
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return appErr.Transport(err, "enqueue provision task failed")
	}
	logger.L().Info("provision task enqueued",
		zap.String("request_id", p.RequestID),
		zap.String("licence_plate", p.LicencePlate),
		zap.String("kind", string(p.Kind)))
	return nil
}

// ProvisionTaskHandler relays intents to the fulfillment endpoint.
type ProvisionTaskHandler struct {
	provisioner provisioner.Provisioner
	projectRepo repository.ProjectRepository
}

func NewProvisionTaskHandler(prov provisioner.Provisioner, projectRepo repository.ProjectRepository) *ProvisionTaskHandler {
	return &ProvisionTaskHandler{provisioner: prov, projectRepo: projectRepo}
}

func (h *ProvisionTaskHandler) HandleProvision(ctx context.Context, t *asynq.Task) error {
	var p ProvisionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid provision task payload", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	projectID, err := uuid.Parse(p.ProjectID)
	if err != nil {
		logger.L().Error("invalid project id in task", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	requestID, _ := uuid.Parse(p.RequestID)

	logger.L().Info("handling provision task",
		zap.String("project_id", p.ProjectID),
		zap.String("kind", string(p.Kind)))

	// fulfillment always receives the current state of the project
	project, err := h.projectRepo.Get(ctx, projectID)
	if err != nil {
		logger.L().Error("get project failed", zap.Error(err))
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	project.ActiveRequest = nil

	intent := &provisioner.Intent{
		RequestID:    requestID,
		ProjectID:    projectID,
		LicencePlate: p.LicencePlate,
		Kind:         p.Kind,
		Project:      project,
	}
	if project.Status == models.ProjectDeleted && p.Kind != provisioner.KindDelete {
		logger.L().Warn("project deleted before provisioning, skipping", zap.String("project_id", p.ProjectID))
		return nil
	}

	receipt, err := h.provisioner.Submit(ctx, intent)
	if err != nil {
		logger.L().Error("submit provisioning intent failed", zap.Error(err), zap.String("project_id", p.ProjectID))
		if errors.Is(err, provisioner.ErrRejected) || errors.Is(err, provisioner.ErrInvalidInput) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	logger.L().Info("provision task completed",
		zap.String("project_id", p.ProjectID),
		zap.String("reference", receipt.Reference))
	return nil
}
