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

// RequestScope selects which active requests to return. The zero value selects all.
type RequestScope struct {
	ProjectID   *uuid.UUID
	Participant string
}

// ErrLicencePlateTaken means a CREATE request carries a plate already held
// by a project or by another CREATE request. Plates are reserved when the
// request is recorded, so approval never collides.
var ErrLicencePlateTaken = errors.New("licence plate already taken")

// EffectKind is the change an approved request makes to its project.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectCreate
	EffectUpdate
	EffectArchive
)

// Effect is applied to the project in the same transaction that resolves the request.
type Effect struct {
	Kind    EffectKind
	Project *models.Project
}

type RequestRepository interface {
	BaseRepository[models.Request]
	// CreateActive stores req as the active request of its project. It fails
	// with a conflict when the project already has one.
	CreateActive(ctx context.Context, req *models.Request) error
	ListActive(ctx context.Context, scope RequestScope) ([]models.Request, error)
	// Resolve moves a pending request to its decided state and applies effect.
	// Both happen or neither does.
	Resolve(ctx context.Context, req *models.Request, effect Effect) error
}

type requestRepository struct {
	BaseRepository[models.Request]
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{BaseRepository: NewBaseRepository[models.Request](db, "request"), db: db}
}

func (r *requestRepository) CreateActive(ctx context.Context, req *models.Request) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ProjectID != nil {
			var p models.Project
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id", "status").
				First(&p, "id = ?", *req.ProjectID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && p.Status == models.ProjectDeleted) {
				return appErr.NotFound(fmt.Sprintf("project %s not found", *req.ProjectID))
			}
			if err != nil {
				return err
			}

			var n int64
			if err := tx.Model(&models.Request{}).
				Where("project_id = ? AND active = ?", *req.ProjectID, true).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return appErr.Conflict("project already has an active request")
			}
		} else if err := checkPlateFree(tx, req.LicencePlate); err != nil {
			return err
		}
		return tx.Create(req).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) && req.ProjectID == nil {
		// a concurrent CREATE reserved the same plate
		return plateTaken(req.LicencePlate, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race against a concurrent request; the partial unique index caught it
		return appErr.Wrap(err, appErr.CodeConflict, "project already has an active request")
	}
	if err != nil {
		return wrapDB(err, "create request")
	}
	return nil
}

func checkPlateFree(tx *gorm.DB, plate string) error {
	var n int64
	if err := tx.Model(&models.Project{}).Where("licence_plate = ?", plate).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		if err := tx.Model(&models.Request{}).
			Where("licence_plate = ? AND type = ?", plate, models.RequestCreate).
			Count(&n).Error; err != nil {
			return err
		}
	}
	if n > 0 {
		return plateTaken(plate, ErrLicencePlateTaken)
	}
	return nil
}

func plateTaken(plate string, err error) error {
	if !errors.Is(err, ErrLicencePlateTaken) {
		err = fmt.Errorf("%w: %w", ErrLicencePlateTaken, err)
	}
	return appErr.Wrap(err, appErr.CodeConflict, fmt.Sprintf("licence plate %s already taken", plate))
}

func (r *requestRepository) ListActive(ctx context.Context, scope RequestScope) ([]models.Request, error) {
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if scope.ProjectID != nil {
		q = q.Where("project_id = ?", *scope.ProjectID)
	}
	if scope.Participant != "" {
		q = q.Where("? = ANY(participants)", models.NormalizeEmail(scope.Participant))
	}
	var out []models.Request
	if err := q.Order("created DESC").Find(&out).Error; err != nil {
		return nil, wrapDB(err, "list active requests")
	}
	return out, nil
}

func (r *requestRepository) Resolve(ctx context.Context, req *models.Request, effect Effect) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Request
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "decision_status").
			First(&current, "id = ?", req.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.NotFound(fmt.Sprintf("request %s not found", req.ID))
		}
		if err != nil {
			return err
		}
		if !current.Pending() {
			return appErr.StaleDecision(fmt.Sprintf("request %s is already %s", req.ID, current.DecisionStatus))
		}

		switch effect.Kind {
		case EffectCreate:
			if err := saveProject(tx, effect.Project, true); err != nil {
				return err
			}
			id := effect.Project.ID
			req.ProjectID = &id
		case EffectUpdate:
			if err := saveProject(tx, effect.Project, false); err != nil {
				return err
			}
		case EffectArchive:
			if err := tx.Model(&models.Project{}).
				Where("id = ?", effect.Project.ID).
				Update("status", models.ProjectDeleted).Error; err != nil {
				return err
			}
			effect.Project.Status = models.ProjectDeleted
		}

		res := tx.Model(&models.Request{}).
			Where("id = ? AND decision_status = ?", req.ID, models.DecisionPending).
			Updates(map[string]any{
				"decision_status": req.DecisionStatus,
				"active":          false,
				"decision_maker":  req.DecisionMaker,
				"decision_date":   req.DecisionDate,
				"human_comment":   req.HumanComment,
				"project_id":      req.ProjectID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return appErr.StaleDecision(fmt.Sprintf("request %s is no longer pending", req.ID))
		}
		return nil
	})
	if err != nil {
		return wrapDB(err, "resolve request")
	}
	return nil
}
