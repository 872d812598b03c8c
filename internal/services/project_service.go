package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/form"
	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

// ProjectService is the read side of the registry.
type ProjectService interface {
	GetProject(ctx context.Context, caller Caller, projectID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, caller Caller) ([]models.Project, error)
	// PreviewDiff returns the patch an EDIT request with these values would record.
	PreviewDiff(ctx context.Context, caller Caller, projectID uuid.UUID, values form.Values) (models.ProjectPatch, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
}

func NewProjectService(projectRepo repository.ProjectRepository) ProjectService {
	return &projectService{projectRepo: projectRepo}
}

var _ ProjectService = (*projectService)(nil)

// IsEditable reports whether a new request may be filed against p.
func IsEditable(p *models.Project) bool {
	return p.IsEditable()
}

func (s *projectService) GetProject(ctx context.Context, caller Caller, projectID uuid.UUID) (*models.Project, error) {
	logger.L().Info("get project", zap.String("project_id", projectID.String()), zap.String("caller", caller.Email))

	p, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProjectDeleted {
		return nil, appErr.NotFound(fmt.Sprintf("project %s not found", projectID))
	}
	if !caller.canSee(p) {
		return nil, appErr.Forbidden("caller is not a contact of the project")
	}
	return p, nil
}

func (s *projectService) ListProjects(ctx context.Context, caller Caller) ([]models.Project, error) {
	logger.L().Info("list projects", zap.String("caller", caller.Email), zap.String("role", string(caller.Role)))

	filter := repository.ProjectFilter{}
	if !caller.IsAdmin() {
		filter.ContactEmail = caller.Email
	}
	return s.projectRepo.List(ctx, filter)
}

func (s *projectService) PreviewDiff(ctx context.Context, caller Caller, projectID uuid.UUID, values form.Values) (models.ProjectPatch, error) {
	p, err := s.GetProject(ctx, caller, projectID)
	if err != nil {
		return models.ProjectPatch{}, err
	}
	return form.Diff(p, values), nil
}
