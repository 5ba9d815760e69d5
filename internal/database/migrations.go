// internal/database/migrations.go
package database

import (
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration IDs, applied strictly in this order.
const (
	MigrationInitial           = "20260113_initial"
	MigrationApplicationEvents = "20260126_add_application_events"
	MigrationJobFields         = "20260128_add_job_fields"
	MigrationAppliedAtRequired = "20260129_applied_at_required"
)

// Each migration works on its own snapshot of the table so that later model
// changes never alter what an earlier step creates.

type applicationV1 struct {
	ID          uint      `gorm:"primaryKey"`
	CompanyName string    `gorm:"size:200;not null;index:ix_applications_company_name"`
	RoleTitle   string    `gorm:"size:200;not null"`
	Status      string    `gorm:"size:50;not null;default:'applied';index:ix_applications_status"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (applicationV1) TableName() string { return "applications" }

type applicationEventV2 struct {
	ID            uint          `gorm:"primaryKey"`
	ApplicationID uint          `gorm:"not null;index:ix_application_events_application_id"`
	Application   applicationV1 `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	EventType     string        `gorm:"size:50;not null"`
	FromStatus    *string       `gorm:"size:50"`
	ToStatus      *string       `gorm:"size:50"`
	Note          *string       `gorm:"size:2000"`
	OccurredAt    time.Time     `gorm:"not null;index:ix_application_events_occurred_at"`
	CreatedAt     time.Time     `gorm:"not null"`
}

func (applicationEventV2) TableName() string { return "application_events" }

type applicationV3 struct {
	ID             uint    `gorm:"primaryKey"`
	JobURL         *string `gorm:"size:1000;index:ix_applications_job_url"`
	JobDescription *string `gorm:"type:text"`
}

func (applicationV3) TableName() string { return "applications" }

type applicationV4 struct {
	ID        uint       `gorm:"primaryKey"`
	AppliedAt *time.Time `gorm:"type:date;index:ix_applications_applied_at"`
}

func (applicationV4) TableName() string { return "applications" }

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: MigrationInitial,
			Migrate: func(tx *gorm.DB) error {
				return tx.Migrator().CreateTable(&applicationV1{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("applications")
			},
		},
		{
			ID: MigrationApplicationEvents,
			Migrate: func(tx *gorm.DB) error {
				return tx.Migrator().CreateTable(&applicationEventV2{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("application_events")
			},
		},
		{
			ID: MigrationJobFields,
			Migrate: func(tx *gorm.DB) error {
				m := tx.Migrator()
				if err := m.AddColumn(&applicationV3{}, "JobURL"); err != nil {
					return err
				}
				if err := m.AddColumn(&applicationV3{}, "JobDescription"); err != nil {
					return err
				}
				return m.CreateIndex(&applicationV3{}, "ix_applications_job_url")
			},
			Rollback: func(tx *gorm.DB) error {
				m := tx.Migrator()
				if err := m.DropIndex(&applicationV3{}, "ix_applications_job_url"); err != nil {
					return err
				}
				if err := dropColumn(tx, "applications", "job_description"); err != nil {
					return err
				}
				return dropColumn(tx, "applications", "job_url")
			},
		},
		{
			ID: MigrationAppliedAtRequired,
			Migrate: func(tx *gorm.DB) error {
				m := tx.Migrator()
				// Added as nullable first so existing rows survive the backfill.
				if err := m.AddColumn(&applicationV4{}, "AppliedAt"); err != nil {
					return err
				}
				if err := tx.Exec(backfillAppliedAtSQL(tx.Dialector.Name())).Error; err != nil {
					return fmt.Errorf("failed to backfill applied_at: %w", err)
				}
				if stmt := requireAppliedAtSQL(tx.Dialector.Name()); stmt != "" {
					if err := tx.Exec(stmt).Error; err != nil {
						return fmt.Errorf("failed to make applied_at required: %w", err)
					}
				}
				return m.CreateIndex(&applicationV4{}, "ix_applications_applied_at")
			},
			Rollback: func(tx *gorm.DB) error {
				m := tx.Migrator()
				if err := m.DropIndex(&applicationV4{}, "ix_applications_applied_at"); err != nil {
					return err
				}
				return dropColumn(tx, "applications", "applied_at")
			},
		},
	}
}

// dropColumn issues a plain ALTER TABLE. The SQLite migrator would otherwise
// rebuild the table, and dropping the old copy cascades into
// application_events.
func dropColumn(tx *gorm.DB, table, column string) error {
	return tx.Exec(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)).Error
}

func backfillAppliedAtSQL(dialect string) string {
	switch dialect {
	case "sqlite":
		return "UPDATE applications SET applied_at = date(created_at) WHERE applied_at IS NULL"
	case "mysql":
		return "UPDATE applications SET applied_at = DATE(created_at) WHERE applied_at IS NULL"
	default:
		return "UPDATE applications SET applied_at = created_at::date WHERE applied_at IS NULL"
	}
}

// SQLite cannot change a column constraint in place; the application layer
// always writes applied_at there.
func requireAppliedAtSQL(dialect string) string {
	switch dialect {
	case "postgres":
		return "ALTER TABLE applications ALTER COLUMN applied_at SET NOT NULL"
	case "mysql":
		return "ALTER TABLE applications MODIFY applied_at DATE NOT NULL"
	default:
		return ""
	}
}

// NewMigrator returns the versioned migrator. The applied IDs are recorded in
// the schema_migrations table.
func NewMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	options := *gormigrate.DefaultOptions
	options.TableName = "schema_migrations"
	options.UseTransaction = db.Dialector.Name() != "mysql"
	return gormigrate.New(db, &options, migrations())
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := NewMigrator(db).Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func MigrateTo(db *gorm.DB, id string) error {
	if err := NewMigrator(db).MigrateTo(id); err != nil {
		return fmt.Errorf("failed to migrate to %s: %w", id, err)
	}
	return nil
}

func RollbackLast(db *gorm.DB) error {
	if err := NewMigrator(db).RollbackLast(); err != nil {
		return fmt.Errorf("failed to roll back last migration: %w", err)
	}
	return nil
}

// MigrationStatus lists every known migration with whether it has been applied.
type MigrationStatus struct {
	ID      string
	Applied bool
}

func Status(db *gorm.DB) ([]MigrationStatus, error) {
	applied := map[string]bool{}
	if db.Migrator().HasTable("schema_migrations") {
		var ids []string
		if err := db.Table("schema_migrations").Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
		}
		for _, id := range ids {
			applied[id] = true
		}
	}

	var statuses []MigrationStatus
	for _, m := range migrations() {
		statuses = append(statuses, MigrationStatus{ID: m.ID, Applied: applied[m.ID]})
	}
	return statuses, nil
}
