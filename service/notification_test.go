package service

import (
	"context"
	"testing"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateNotification(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := primitive.NewObjectID()

	_, err := env.svc.Notifications.Create(ctx, userID, "", models.CategoryOther)
	expectKind(t, err, KindValidation)

	n, err := env.svc.Notifications.Create(ctx, userID, "Clinic closed on Friday", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.Category != models.CategoryOther || n.ID.IsZero() {
		t.Fatalf("unexpected notification %+v", n)
	}
	if len(env.publisher.published) != 1 || env.publisher.published[0].ID != n.ID {
		t.Fatalf("expected notification to be published")
	}
}

func TestListNotificationsBadges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := primitive.NewObjectID()

	// a record from before categories were stored
	legacy := models.Notification{
		UserID:    userID,
		Content:   "Congratulations, Your application has been accepted.",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := env.store.Notifications.Insert(ctx, &legacy); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := env.svc.Notifications.Create(ctx, userID, "Reminder: appointment today", models.CategoryReminder); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Notifications.Create(ctx, primitive.NewObjectID(), "someone else", models.CategoryOther); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := env.svc.Notifications.ListForCaller(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(items))
	}
	if items[0].Category != models.CategoryReminder || items[0].Badge != models.CategoryOther {
		t.Fatalf("unexpected newest item %+v", items[0])
	}
	if items[1].Badge != models.CategoryApproved {
		t.Fatalf("legacy record must be classified from its content, got %s", items[1].Badge)
	}
}
