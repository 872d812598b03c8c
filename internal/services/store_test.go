package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/repository"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

// memStore is an in-memory persistence collaborator with the same atomicity
// guarantees as the gorm repositories.
type memStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
	requests map[uuid.UUID]*models.Request
	order    []uuid.UUID
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		projects: map[uuid.UUID]*models.Project{},
		requests: map[uuid.UUID]*models.Request{},
	}
}

func (s *memStore) addProject(p *models.Project) *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	s.projects[p.ID] = p.Clone()
	return p
}

func (s *memStore) activeFor(projectID uuid.UUID) []*models.Request {
	var out []*models.Request
	for _, id := range s.order {
		r := s.requests[id]
		if r.Active && r.ProjectID != nil && *r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) plateTaken(plate string) bool {
	for _, p := range s.projects {
		if p.LicencePlate == plate {
			return true
		}
	}
	for _, r := range s.requests {
		if r.Type == models.RequestCreate && r.LicencePlate == plate {
			return true
		}
	}
	return false
}

// ProjectRepository

func (s *memStore) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, appErr.NotFound(fmt.Sprintf("project %s not found", id))
	}
	out := p.Clone()
	if active := s.activeFor(id); len(active) > 0 {
		r := *active[0]
		out.ActiveRequest = &r
	}
	return out, nil
}

func (s *memStore) List(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Project
	for _, p := range s.projects {
		if p.Status != models.ProjectActive {
			continue
		}
		if filter.ContactEmail != "" && !p.HasContact(filter.ContactEmail) {
			continue
		}
		out = append(out, *p.Clone())
	}
	return out, nil
}

// RequestRepository

func (s *memStore) Create(ctx context.Context, obj *models.Request) error {
	return s.CreateActive(ctx, obj)
}

func (s *memStore) GetByID(ctx context.Context, id any, dest *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id.(uuid.UUID)]
	if !ok {
		return appErr.NotFound(fmt.Sprintf("request %v not found", id))
	}
	*dest = *r
	return nil
}

func (s *memStore) Update(ctx context.Context, obj *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *obj
	s.requests[obj.ID] = &r
	return nil
}

func (s *memStore) CreateActive(ctx context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	if req.ProjectID != nil {
		p, ok := s.projects[*req.ProjectID]
		if !ok || p.Status == models.ProjectDeleted {
			return appErr.NotFound("project not found")
		}
		if len(s.activeFor(*req.ProjectID)) > 0 {
			return appErr.Conflict("project already has an active request")
		}
	} else if s.plateTaken(req.LicencePlate) {
		return appErr.Wrap(repository.ErrLicencePlateTaken, appErr.CodeConflict, "licence plate already taken")
	}
	req.ID = uuid.New()
	r := *req
	s.requests[req.ID] = &r
	s.order = append(s.order, req.ID)
	return nil
}

func (s *memStore) ListActive(ctx context.Context, scope repository.RequestScope) ([]models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Request
	for _, id := range s.order {
		r := s.requests[id]
		if !r.Active {
			continue
		}
		if scope.ProjectID != nil && (r.ProjectID == nil || *r.ProjectID != *scope.ProjectID) {
			continue
		}
		if scope.Participant != "" && !r.HasParticipant(scope.Participant) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) Resolve(ctx context.Context, req *models.Request, effect repository.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	current, ok := s.requests[req.ID]
	if !ok {
		return appErr.NotFound("request not found")
	}
	if !current.Pending() {
		return appErr.StaleDecision("request already resolved")
	}

	switch effect.Kind {
	case repository.EffectCreate:
		p := effect.Project.Clone()
		p.ID = uuid.New()
		p.Status = models.ProjectActive
		s.projects[p.ID] = p
		req.ProjectID = &p.ID
	case repository.EffectUpdate:
		s.projects[effect.Project.ID] = effect.Project.Clone()
	case repository.EffectArchive:
		s.projects[effect.Project.ID].Status = models.ProjectDeleted
	}

	r := *req
	s.requests[req.ID] = &r
	return nil
}

var (
	_ repository.ProjectRepository = (*memStore)(nil)
	_ repository.RequestRepository = (*memStore)(nil)
)
