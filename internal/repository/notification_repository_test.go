package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

func testRepos(t *testing.T) (*NotificationRepository, *UserRepository) {
	t.Helper()
	db, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	return NewNotificationRepository(db, logger), NewUserRepository(db, logger)
}

func seedUser(t *testing.T, users *UserRepository) int {
	t.Helper()
	id, err := users.Create(context.Background(), "guardian@school.local", "Phụ huynh", "guardian", "hash")
	require.NoError(t, err)
	return id
}

func TestMarkReadIdempotent(t *testing.T) {
	ctx := context.Background()
	notifications, users := testRepos(t)
	userID := seedUser(t, users)

	id, err := notifications.Create(ctx, &model.NotificationCreate{
		UserID: userID, Title: "t", Message: "m",
	})
	require.NoError(t, err)

	affected, err := notifications.MarkRead(ctx, userID, []int{id})
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	// Marking again is a no-op, not an error
	affected, err = notifications.MarkRead(ctx, userID, []int{id})
	require.NoError(t, err)
	assert.Equal(t, 0, affected)

	unread, err := notifications.UnreadCountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestMarkReadOnlyOwnNotifications(t *testing.T) {
	ctx := context.Background()
	notifications, users := testRepos(t)
	owner := seedUser(t, users)
	other, err := users.Create(ctx, "nurse@school.local", "Y tá", "nurse", "hash")
	require.NoError(t, err)

	id, err := notifications.Create(ctx, &model.NotificationCreate{
		UserID: owner, Title: "t", Message: "m",
	})
	require.NoError(t, err)

	affected, err := notifications.MarkRead(ctx, other, []int{id})
	require.NoError(t, err)
	assert.Equal(t, 0, affected, "a user must not mark another user's notifications")

	unread, err := notifications.UnreadCountByUser(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestListNewestFirstAndPaged(t *testing.T) {
	ctx := context.Background()
	notifications, users := testRepos(t)
	userID := seedUser(t, users)

	var ids []int
	for i := 0; i < 5; i++ {
		id, err := notifications.Create(ctx, &model.NotificationCreate{
			UserID: userID, Title: "t", Message: "m",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	page, err := notifications.ListByUser(ctx, userID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID, "newest first")
	assert.Equal(t, ids[3], page[1].ID)

	total, err := notifications.CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	second, err := notifications.ListByUser(ctx, userID, 2, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, ids[2], second[0].ID)
}

func TestUnreadCountSpansPages(t *testing.T) {
	ctx := context.Background()
	notifications, users := testRepos(t)
	userID := seedUser(t, users)

	var ids []int
	for i := 0; i < 4; i++ {
		id, err := notifications.Create(ctx, &model.NotificationCreate{
			UserID: userID, Title: "t", Message: "m",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, err := notifications.MarkRead(ctx, userID, ids[:1])
	require.NoError(t, err)

	unread, err := notifications.UnreadCountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, unread, "unread count covers all pages, not just the visible one")
}

func TestGetByIDMissing(t *testing.T) {
	ctx := context.Background()
	notifications, _ := testRepos(t)

	n, err := notifications.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, n)
}
