// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"roommatch/internal/database"
	"roommatch/internal/models"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// lookupError maps a single-row read failure onto the error taxonomy.
func lookupError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// writeError maps an insert or update failure. Unique violations become conflicts.
func writeError(err error, conflictMessage string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if database.IsUniqueViolation(err) {
		return models.NewConflictError(conflictMessage)
	}
	return models.NewInternalError(err)
}

// pairClause matches rows linking a and b in either direction.
func pairClause(db *gorm.DB, leftCol, rightCol string, a, b uint) *gorm.DB {
	return db.Where(
		"("+leftCol+" = ? AND "+rightCol+" = ?) OR ("+leftCol+" = ? AND "+rightCol+" = ?)",
		a, b, b, a,
	)
}
