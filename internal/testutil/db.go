package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"roommatch/internal/database"
	"roommatch/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB returns a migrated, isolated in-memory sqlite database.
// A single connection keeps every query on the same in-memory instance.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "$2a$04$invalidhashforfixtures"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateProfile inserts a minimal profile for userID.
func CreateProfile(t testing.TB, db *gorm.DB, userID uint, name string) *models.Profile {
	t.Helper()
	p := &models.Profile{UserID: userID, Name: name, Age: 25, Location: "Austin, TX"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create profile for %d: %v", userID, err)
	}
	return p
}

// Connect inserts a connection between requester and receiver with the given status.
func Connect(t testing.TB, db *gorm.DB, requesterID, receiverID uint, status models.ConnectionStatus) *models.Connection {
	t.Helper()
	c := &models.Connection{RequesterID: requesterID, ReceiverID: receiverID, Status: status}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create connection: %v", err)
	}
	return c
}
