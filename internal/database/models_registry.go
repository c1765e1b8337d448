package database

import "roommatch/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Connection{},
		&models.Message{},
		&models.SavedProfile{},
		&models.Feedback{},
		&models.PasswordReset{},
	}
}
