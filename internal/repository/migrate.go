package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the schema for every table this package
// owns. Used by the seeder and the test suites; production deployments run
// the same models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userModel{},
		&issueModel{},
		&slotModel{},
		&bookingModel{},
		&extensionModel{},
		&timelineModel{},
		&proofModel{},
		&notificationModel{},
	); err != nil {
		return err
	}
	return createOverlapConstraint(db)
}

// createOverlapConstraint installs the exclusion constraint that makes
// provider-day booking overlap impossible at the database level. It is the
// backstop behind the in-transaction overlap re-check. Postgres-only:
// sqlite serializes writers, so the re-check alone suffices there.
func createOverlapConstraint(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return err
	}
	return db.Exec(`
DO $$ BEGIN
	ALTER TABLE bookings ADD CONSTRAINT bookings_no_provider_overlap
	EXCLUDE USING gist (
		provider_id WITH =,
		scheduled_date WITH =,
		int4range(assigned_start_min, assigned_end_min) WITH &&
	) WHERE (status <> 'cancelled');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;
`).Error
}
