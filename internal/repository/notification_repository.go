package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// ListByUser retrieves one page of a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, title, message, is_read, created_at
	          FROM notifications
	          WHERE user_id = ?
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`

	notifications := []model.Notification{}
	err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, err
	}

	return notifications, nil
}

// CountByUser retrieves the total number of notifications for a user
func (r *NotificationRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID)
	if err != nil {
		r.logger.Error("Failed to count notifications", zap.Error(err))
		return 0, err
	}

	return count, nil
}

// UnreadCountByUser retrieves the count of unread notifications for a user
func (r *NotificationRepository) UnreadCountByUser(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		r.logger.Error("Failed to count unread notifications", zap.Error(err))
		return 0, err
	}

	return count, nil
}

// MarkRead marks the given notifications as read for the owning user and
// returns how many rows actually changed. Already-read ids are no-ops, so
// repeated calls with the same ids are idempotent.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID int, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(
		`UPDATE notifications SET is_read = 1
		 WHERE user_id = ? AND is_read = 0 AND id IN (?)`, userID, ids)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		r.logger.Error("Failed to mark notifications as read", zap.Error(err))
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

// Create inserts a notification and returns its id
func (r *NotificationRepository) Create(ctx context.Context, n *model.NotificationCreate) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message) VALUES (?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Message)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	return int(id), nil
}

// GetByID retrieves a single notification, or nil when it does not exist
func (r *NotificationRepository) GetByID(ctx context.Context, id int) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n,
		`SELECT id, user_id, type, title, message, is_read, created_at
		 FROM notifications WHERE id = ?`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error("Failed to get notification", zap.Error(err))
		return nil, err
	}

	return &n, nil
}
