package repository

import (
	"context"
	"testing"
	"time"

	"roommatch/internal/models"
	"roommatch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Email: "  Alice@Example.com ", Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "alice@example.com", u.Email)

	err := repo.Create(ctx, &models.User{Email: "ALICE@example.com", Password: "hash"})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.Equal(t, "User with this email already exists", err.Error())

	got, err := repo.GetByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.Password)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	_, err = repo.GetByID(ctx, 12345)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	exists, err := repo.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPasswordResetRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPasswordResetRepository(db)
	ctx := context.Background()
	now := time.Now()

	u := testutil.CreateUser(t, db, "reset@example.com")
	reset := &models.PasswordReset{UserID: u.ID, TokenHash: "h1", ExpiresAt: now.Add(30 * time.Minute)}
	require.NoError(t, repo.Create(ctx, reset))
	require.NoError(t, repo.Create(ctx, &models.PasswordReset{UserID: u.ID, TokenHash: "h2", ExpiresAt: now.Add(-time.Minute)}))

	active, err := repo.GetActiveByHash(ctx, "h1", now)
	require.NoError(t, err)
	require.NotNil(t, active)

	expired, err := repo.GetActiveByHash(ctx, "h2", now)
	require.NoError(t, err)
	assert.Nil(t, expired)

	require.NoError(t, repo.Consume(ctx, active, "new-hash", now))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, u.ID).Error)
	assert.Equal(t, "new-hash", reloaded.Password)

	used, err := repo.GetActiveByHash(ctx, "h1", now)
	require.NoError(t, err)
	assert.Nil(t, used)

	err = repo.Consume(ctx, active, "again", now)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
