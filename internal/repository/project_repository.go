package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okanji/platform-services-registry-web/internal/models"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

// ProjectFilter narrows a project listing. The zero value lists every active project.
type ProjectFilter struct {
	// ContactEmail keeps projects where the e-mail is owner or technical lead.
	ContactEmail string
}

type ProjectRepository interface {
	// Get loads a project with its contacts and its active request, if any.
	// Deleted projects are returned too; callers check Status.
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func withContacts(db *gorm.DB) *gorm.DB {
	return db.Preload("ProjectOwner").Preload("PrimaryTechnicalLead").Preload("SecondaryTechnicalLead")
}

func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	db := r.db.WithContext(ctx)
	var p models.Project
	if err := withContacts(db).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.NotFound(fmt.Sprintf("project %s not found", id))
		}
		return nil, wrapDB(err, "get project")
	}
	if err := attachActiveRequests(db, []*models.Project{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	db := r.db.WithContext(ctx)
	q := withContacts(db).Where("status = ?", models.ProjectActive)
	if filter.ContactEmail != "" {
		users := db.Model(&models.User{}).Select("id").Where("email = ?", models.NormalizeEmail(filter.ContactEmail))
		q = q.Where(
			db.Where("project_owner_id IN (?)", users).
				Or("primary_technical_lead_id IN (?)", users).
				Or("secondary_technical_lead_id IN (?)", users),
		)
	}
	var out []models.Project
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, wrapDB(err, "list projects")
	}
	ptrs := make([]*models.Project, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := attachActiveRequests(db, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func attachActiveRequests(db *gorm.DB, projects []*models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Project, len(projects))
	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	var active []models.Request
	if err := db.Where("active = ? AND project_id IN ?", true, ids).Find(&active).Error; err != nil {
		return wrapDB(err, "load active requests")
	}
	for i := range active {
		req := active[i]
		if p, ok := byID[*req.ProjectID]; ok {
			p.ActiveRequest = &req
		}
	}
	return nil
}

// saveProject upserts the contacts of p and stores the project row itself.
// Associations are never written through the project.
func saveProject(tx *gorm.DB, p *models.Project, create bool) error {
	if err := upsertUser(tx, &p.ProjectOwner); err != nil {
		return err
	}
	p.ProjectOwnerID = p.ProjectOwner.ID
	if err := upsertUser(tx, &p.PrimaryTechnicalLead); err != nil {
		return err
	}
	p.PrimaryTechnicalLeadID = p.PrimaryTechnicalLead.ID
	if p.SecondaryTechnicalLead != nil {
		if err := upsertUser(tx, p.SecondaryTechnicalLead); err != nil {
			return err
		}
		id := p.SecondaryTechnicalLead.ID
		p.SecondaryTechnicalLeadID = &id
	} else {
		p.SecondaryTechnicalLeadID = nil
	}

	q := tx.Omit(clause.Associations)
	if create {
		p.ID = uuid.Nil
		p.Status = models.ProjectActive
		if err := q.Create(p).Error; err != nil {
			return wrapDB(err, "create project")
		}
		return nil
	}
	if err := q.Save(p).Error; err != nil {
		return wrapDB(err, "update project")
	}
	return nil
}
