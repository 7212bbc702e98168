package service

import (
	"context"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationItem is a stored notification plus its display badge
type NotificationItem struct {
	models.Notification
	Badge models.NotificationCategory `json:"badge"`
}

type NotificationService struct {
	store     *store.Store
	publisher Publisher
	now       func() time.Time
}

// Record appends a notification without publishing it. Callers inside a
// transaction publish after commit.
func (s *NotificationService) Record(ctx context.Context, userID primitive.ObjectID, content string, category models.NotificationCategory) (models.Notification, error) {
	now := s.now()
	n := models.Notification{
		UserID:    userID,
		Content:   content,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Notifications.Insert(ctx, &n); err != nil {
		return models.Notification{}, Internal("Unable to save notification", err)
	}
	return n, nil
}

// Publish pushes notifications to live subscribers
func (s *NotificationService) Publish(notifications ...models.Notification) {
	if s.publisher == nil {
		return
	}
	for _, n := range notifications {
		s.publisher.Publish(n)
	}
}

// Create stores a notification and publishes it
func (s *NotificationService) Create(ctx context.Context, userID primitive.ObjectID, content string, category models.NotificationCategory) (*models.Notification, error) {
	if content == "" {
		return nil, Validation("Notification content is required")
	}
	if category == "" {
		category = models.CategoryOther
	}
	n, err := s.Record(ctx, userID, content, category)
	if err != nil {
		return nil, err
	}
	s.Publish(n)
	return &n, nil
}

// ListForCaller returns the caller's notifications, newest first
func (s *NotificationService) ListForCaller(ctx context.Context, userID primitive.ObjectID) ([]NotificationItem, error) {
	notifications, err := s.store.Notifications.ListByUserID(ctx, userID)
	if err != nil {
		return nil, Internal("Unable to get all notifications", err)
	}
	items := make([]NotificationItem, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, NotificationItem{Notification: n, Badge: n.Badge()})
	}
	return items, nil
}
