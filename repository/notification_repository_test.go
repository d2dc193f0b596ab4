package repository

import (
	"context"
	"testing"

	"betmate/domain/entities"
	"betmate/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewNotificationRepository(testDB.DB)
	ctx := context.Background()

	recipient, err := userRepo.Create(ctx, "recipient", "Recipient", 1000)
	require.NoError(t, err)
	other, err := userRepo.Create(ctx, "other", "Other", 1000)
	require.NoError(t, err)

	first := testutil.CreateTestNotification(recipient.ID, entities.NotificationTypeBetCreated)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	second := testutil.CreateTestNotification(recipient.ID, entities.NotificationTypeBetResolved)
	require.NoError(t, repo.Create(ctx, second))

	foreign := testutil.CreateTestNotification(other.ID, entities.NotificationTypeBetCreated)
	require.NoError(t, repo.Create(ctx, foreign))

	t.Run("list only returns the recipient's notifications", func(t *testing.T) {
		notifications, err := repo.ListByUser(ctx, recipient.ID, false, 50, 0)
		require.NoError(t, err)
		require.Len(t, notifications, 2)
		for _, n := range notifications {
			assert.Equal(t, recipient.ID, n.RecipientID)
			assert.False(t, n.Read)
		}
	})

	t.Run("mark read is scoped to the owner", func(t *testing.T) {
		ok, err := repo.MarkRead(ctx, first.ID, other.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.MarkRead(ctx, first.ID, recipient.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		count, err := repo.CountUnread(ctx, recipient.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("unread filter excludes read notifications", func(t *testing.T) {
		unread, err := repo.ListByUser(ctx, recipient.ID, true, 50, 0)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, second.ID, unread[0].ID)
	})

	t.Run("mark all read clears the counter", func(t *testing.T) {
		require.NoError(t, repo.MarkAllRead(ctx, recipient.ID))

		count, err := repo.CountUnread(ctx, recipient.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		count, err = repo.CountUnread(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
