package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Migrate creates the schema and, on PostgreSQL, the exclusion constraint
// that rejects two active claims on the same bed for overlapping nights.
// The constraint is the last line of defense behind the in-process
// conflict check; a violation surfaces as SQLSTATE 23P01/23505 and the
// allocation service retries against a fresh snapshot.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&roomModel{}, &roomAliasModel{}, &bookingModel{}); err != nil {
		return err
	}

	if strings.Contains(db.Dialector.Name(), "postgres") {
		return db.Exec(`
DO $$ BEGIN
  CREATE EXTENSION IF NOT EXISTS btree_gist;
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'idx_no_double_bed') THEN
    ALTER TABLE bookings ADD CONSTRAINT idx_no_double_bed
      EXCLUDE USING gist (
        resolved_room_id WITH =,
        unit_id WITH =,
        daterange(check_in::date, check_out::date, '[)') WITH &&
      )
      WHERE (status IN ('pending', 'confirmed', 'checked_in') AND resolved_room_id IS NOT NULL AND unit_id IS NOT NULL);
  END IF;
END $$;
`).Error
	}
	return nil
}
