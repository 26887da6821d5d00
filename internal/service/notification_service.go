package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/kafka"
	"github.com/yourorg/schoolhealth-notify/internal/model"
	"github.com/yourorg/schoolhealth-notify/internal/repository"
)

// NotificationService handles notification operations for the reference
// server. It assembles the page envelope the sync client consumes.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	producer         *kafka.Producer
	logger           *zap.Logger
}

// NewNotificationService creates a new notification service. The producer
// may be nil when event publishing is disabled.
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	producer *kafka.Producer,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		producer:         producer,
		logger:           logger,
	}
}

// GetPage retrieves one page of a user's notifications plus the unread
// count across all pages
func (s *NotificationService) GetPage(ctx context.Context, userID, page, limit int) (*model.NotificationPage, error) {
	exists, err := s.checkUserActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.New("user not found or inactive")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	offset := (page - 1) * limit

	notifications, err := s.notificationRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.notificationRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.UnreadCountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	return &model.NotificationPage{
		Notifications: notifications,
		Pagination: model.Pagination{
			CurrentPage: page,
			TotalItems:  total,
			TotalPages:  totalPages,
		},
		UnreadCount: unread,
	}, nil
}

// MarkRead marks the given notifications as read. Only notifications owned
// by the calling user are affected; already-read ids are silent no-ops.
func (s *NotificationService) MarkRead(ctx context.Context, userID int, ids []int) (int, error) {
	exists, err := s.checkUserActive(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, errors.New("user not found or inactive")
	}

	return s.notificationRepo.MarkRead(ctx, userID, ids)
}

// Create adds a new notification for a user and publishes a created event
// when a producer is configured
func (s *NotificationService) Create(ctx context.Context, n *model.NotificationCreate) (int, error) {
	exists, err := s.checkUserActive(ctx, n.UserID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, errors.New("user not found or inactive")
	}

	id, err := s.notificationRepo.Create(ctx, n)
	if err != nil {
		return 0, err
	}

	if s.producer != nil {
		event := map[string]interface{}{
			"notificationId": id,
			"userId":         n.UserID,
			"type":           n.Type,
			"title":          n.Title,
		}
		if err := s.producer.Publish(ctx, strconv.Itoa(n.UserID), event); err != nil {
			// Publishing is best-effort; the notification is already stored
			s.logger.Warn("failed to publish notification event",
				zap.Int("notificationId", id),
				zap.Error(err))
		}
	}

	return id, nil
}

// checkUserActive checks if a user exists and is active
func (s *NotificationService) checkUserActive(ctx context.Context, userID int) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil || !user.IsActive {
		return false, nil
	}
	return true, nil
}
