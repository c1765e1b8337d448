package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"roommatch/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMigration records one applied migration.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrator applies a fixed set of migrations and tracks them in
// schema_migrations. Each migration runs in its own transaction together
// with its log row.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

// NewMigrator returns a Migrator over set, which must be sorted by version.
func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set}
}

func newEmbeddedMigrator(db *gorm.DB) (*Migrator, error) {
	set, err := EmbeddedMigrations()
	if err != nil {
		return nil, err
	}
	return NewMigrator(db, set), nil
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(ctx context.Context, db *gorm.DB) ([]Migration, error) {
	m, err := newEmbeddedMigrator(db)
	if err != nil {
		return nil, err
	}
	return m.Up(ctx)
}

// RollbackMigration reverts the newest applied embedded migration, which must be version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m, err := newEmbeddedMigrator(db)
	if err != nil {
		return err
	}
	return m.Down(ctx, version)
}

func (m *Migrator) ensureLog(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

// Applied lists recorded migrations in version order. A missing log table
// means nothing has been applied.
func (m *Migrator) Applied(ctx context.Context) ([]SchemaMigration, error) {
	if !m.db.Migrator().HasTable(&SchemaMigration{}) {
		return nil, nil
	}
	var rows []SchemaMigration
	if err := m.db.WithContext(ctx).Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	return rows, nil
}

// Up applies pending migrations in order and returns the ones it ran. It
// refuses to start when the log holds versions this binary does not know.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.ensureLog(ctx); err != nil {
		return nil, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if unknown := unknownVersions(applied, m.set); len(unknown) > 0 {
		return nil, fmt.Errorf("schema_migrations has versions missing from this build: %s", formatVersions(unknown))
	}

	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		done[row.Version] = true
	}

	var ran []Migration
	for _, mig := range m.set {
		if done[mig.Version] {
			continue
		}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum()}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("apply %s: %w", mig.ID(), err)
		}
		middleware.Logger.InfoContext(ctx, "migration applied", slog.String("migration", mig.ID()))
		ran = append(ran, mig)
	}
	return ran, nil
}

// Down reverts version, which has to be the newest applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig, ok := findMigration(m.set, version)
	if !ok {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 || applied[len(applied)-1].Version != version {
		return fmt.Errorf("migration %s is not the latest applied migration", mig.ID())
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", version).Delete(&SchemaMigration{}).Error
	})
	if err != nil {
		return fmt.Errorf("roll back %s: %w", mig.ID(), err)
	}
	middleware.Logger.InfoContext(ctx, "migration rolled back", slog.String("migration", mig.ID()))
	return nil
}

func unknownVersions(applied []SchemaMigration, set []Migration) []int {
	var unknown []int
	for _, row := range applied {
		if _, ok := findMigration(set, row.Version); !ok {
			unknown = append(unknown, row.Version)
		}
	}
	sort.Ints(unknown)
	return unknown
}

// driftedVersions are applied migrations whose up script changed since.
func driftedVersions(applied []SchemaMigration, set []Migration) []int {
	var drifted []int
	for _, row := range applied {
		if mig, ok := findMigration(set, row.Version); ok && mig.Checksum() != row.Checksum {
			drifted = append(drifted, row.Version)
		}
	}
	return drifted
}

func formatVersions(versions []int) string {
	parts := make([]string, 0, len(versions))
	for _, v := range versions {
		parts = append(parts, fmt.Sprintf("%06d", v))
	}
	return strings.Join(parts, ", ")
}
