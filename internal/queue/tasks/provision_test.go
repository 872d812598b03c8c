package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/provisioner"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by tasks)
	_, err := logger.Init("info", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

// Mock implementations
type mockProvisioner struct {
	mock.Mock
}

func (m *mockProvisioner) Submit(ctx context.Context, intent *provisioner.Intent) (*provisioner.Receipt, error) {
	args := m.Called(ctx, intent)
	if v := args.Get(0); v != nil {
		return v.(*provisioner.Receipt), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockProjectRepository struct {
	mock.Mock
}

func (m *mockProjectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProjectRepository) List(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, error) {
	args := m.Called(ctx, filter)
	if v := args.Get(0); v != nil {
		return v.([]models.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTaskClient struct {
	mock.Mock
}

func (m *mockTaskClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if v := args.Get(0); v != nil {
		return v.(*asynq.TaskInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func provisionTask(t *testing.T, p ProvisionPayload) *asynq.Task {
	t.Helper()
	task, err := NewProvisionTask(p)
	require.NoError(t, err)
	return task
}

func TestEnqueuer_Provision(t *testing.T) {
	payload := ProvisionPayload{
		RequestID:    uuid.NewString(),
		ProjectID:    uuid.NewString(),
		LicencePlate: "ab12cd",
		Kind:         provisioner.KindEdit,
	}

	t.Run("enqueues intent", func(t *testing.T) {
		client := &mockTaskClient{}
		client.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
			var got ProvisionPayload
			_ = json.Unmarshal(task.Payload(), &got)
			return task.Type() == TypeProvisionIntent && got == payload
		})).Return(&asynq.TaskInfo{}, nil).Once()

		require.NoError(t, (&Enqueuer{client: client}).Provision(context.Background(), payload))
		client.AssertExpectations(t)
	})

	t.Run("duplicate is ignored", func(t *testing.T) {
		client := &mockTaskClient{}
		client.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, asynq.ErrTaskIDConflict).Once()

		assert.NoError(t, (&Enqueuer{client: client}).Provision(context.Background(), payload))
	})

	t.Run("broker failure is transport", func(t *testing.T) {
		client := &mockTaskClient{}
		client.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()

		err := (&Enqueuer{client: client}).Provision(context.Background(), payload)
		assert.True(t, appErr.IsCode(err, appErr.CodeTransport))
	})
}

func TestProvisionTaskHandler_HandleProvision(t *testing.T) {
	projectID := uuid.New()
	requestID := uuid.New()
	payload := ProvisionPayload{
		RequestID:    requestID.String(),
		ProjectID:    projectID.String(),
		LicencePlate: "ab12cd",
		Kind:         provisioner.KindReprovision,
	}

	t.Run("successful hand-off", func(t *testing.T) {
		prov := &mockProvisioner{}
		projectRepo := &mockProjectRepository{}
		handler := NewProvisionTaskHandler(prov, projectRepo)

		project := &models.Project{ID: projectID, LicencePlate: "ab12cd", Status: models.ProjectActive}
		projectRepo.On("Get", mock.Anything, projectID).Return(project, nil).Once()
		prov.On("Submit", mock.Anything, mock.MatchedBy(func(in *provisioner.Intent) bool {
			return in.RequestID == requestID && in.ProjectID == projectID &&
				in.Kind == provisioner.KindReprovision && in.Project == project
		})).Return(&provisioner.Receipt{Reference: "job-1"}, nil).Once()

		require.NoError(t, handler.HandleProvision(context.Background(), provisionTask(t, payload)))
		mock.AssertExpectationsForObjects(t, prov, projectRepo)
	})

	t.Run("rejected intent is not retried", func(t *testing.T) {
		prov := &mockProvisioner{}
		projectRepo := &mockProjectRepository{}
		handler := NewProvisionTaskHandler(prov, projectRepo)

		projectRepo.On("Get", mock.Anything, projectID).Return(&models.Project{ID: projectID}, nil).Once()
		prov.On("Submit", mock.Anything, mock.Anything).Return(nil, provisioner.ErrRejected).Once()

		err := handler.HandleProvision(context.Background(), provisionTask(t, payload))
		require.Error(t, err)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("transport failure is retried", func(t *testing.T) {
		prov := &mockProvisioner{}
		projectRepo := &mockProjectRepository{}
		handler := NewProvisionTaskHandler(prov, projectRepo)

		transport := appErr.Transport(errors.New("connection refused"), "submit provisioning intent")
		projectRepo.On("Get", mock.Anything, projectID).Return(&models.Project{ID: projectID}, nil).Once()
		prov.On("Submit", mock.Anything, mock.Anything).Return(nil, transport).Once()

		err := handler.HandleProvision(context.Background(), provisionTask(t, payload))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("deleted project skips non-delete intents", func(t *testing.T) {
		prov := &mockProvisioner{}
		projectRepo := &mockProjectRepository{}
		handler := NewProvisionTaskHandler(prov, projectRepo)

		projectRepo.On("Get", mock.Anything, projectID).
			Return(&models.Project{ID: projectID, Status: models.ProjectDeleted}, nil).Once()

		require.NoError(t, handler.HandleProvision(context.Background(), provisionTask(t, payload)))
		prov.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("malformed payload", func(t *testing.T) {
		handler := NewProvisionTaskHandler(&mockProvisioner{}, &mockProjectRepository{})
		err := handler.HandleProvision(context.Background(), asynq.NewTask(TypeProvisionIntent, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
