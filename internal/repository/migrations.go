package repository

import (
	"gorm.io/gorm"

	"github.com/okanji/platform-services-registry-web/internal/models"
)

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Request{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := enableUUIDExtension(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addActiveRequestLock,
		addCreatePlateReservation,
		addParticipantIndex,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// enableUUIDExtension ensures UUID generation is available
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// addActiveRequestLock allows at most one active request per project.
func addActiveRequestLock(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_one_active_per_project
		ON requests(project_id)
		WHERE active
	`).Error
}

// addCreatePlateReservation reserves a licence plate for the CREATE request
// that introduced it, whatever its decision.
func addCreatePlateReservation(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_create_licence_plate
		ON requests(licence_plate)
		WHERE type = 'CREATE'
	`).Error
}

// addParticipantIndex backs the "? = ANY(participants)" visibility filter.
func addParticipantIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_requests_participants
		ON requests USING GIN (participants)
		WHERE active
	`).Error
}
