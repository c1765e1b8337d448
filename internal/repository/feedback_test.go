package repository

import (
	"context"
	"testing"

	"roommatch/internal/models"
	"roommatch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFeedbackRepository(db)
	ctx := context.Background()

	target := testutil.CreateUser(t, db, "target@example.com")
	r1 := testutil.CreateUser(t, db, "r1@example.com")
	r2 := testutil.CreateUser(t, db, "r2@example.com")
	r3 := testutil.CreateUser(t, db, "r3@example.com")
	testutil.CreateProfile(t, db, r1.ID, "Rater One")

	stats, err := repo.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, RatingStats{}, stats)

	for _, fb := range []*models.Feedback{
		{FromUserID: r1.ID, ToUserID: target.ID, Rating: 5},
		{FromUserID: r2.ID, ToUserID: target.ID, Rating: 4},
		{FromUserID: r3.ID, ToUserID: target.ID, Rating: 4},
	} {
		require.NoError(t, repo.Create(ctx, fb))
	}

	err = repo.Create(ctx, &models.Feedback{FromUserID: r1.ID, ToUserID: target.ID, Rating: 1})
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.Equal(t, msgFeedbackExists, err.Error())

	stats, err = repo.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 4.33, stats.Average)

	list, err := repo.ListForUser(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)

	given, err := repo.ListGivenBy(ctx, r1.ID)
	require.NoError(t, err)
	require.Len(t, given, 1)
	assert.Equal(t, target.ID, given[0].ToUserID)

	pair, err := repo.GetByPair(ctx, r1.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, pair)
	none, err := repo.GetByPair(ctx, target.ID, r1.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	pair.Rating = 1
	require.NoError(t, repo.Update(ctx, pair))
	stats, err = repo.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, stats.Average)

	require.NoError(t, repo.Delete(ctx, pair.ID))
	_, err = repo.GetByID(ctx, pair.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.True(t, models.IsCode(repo.Delete(ctx, pair.ID), models.CodeNotFound))
}
