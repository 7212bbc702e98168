package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationCategory string

const (
	CategoryApproved  NotificationCategory = "approved"
	CategoryRejected  NotificationCategory = "rejected"
	CategoryBooked    NotificationCategory = "booked"
	CategoryCompleted NotificationCategory = "completed"
	CategoryReminder  NotificationCategory = "reminder"
	CategoryOther     NotificationCategory = "other"
)

// Notification is an immutable message addressed to a user
type Notification struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID   `bson:"userId" json:"userId"`
	Content   string               `bson:"content" json:"content"`
	Category  NotificationCategory `bson:"category,omitempty" json:"category"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Badge is the coarse approved/rejected/other class shown next to a notification.
// Records written before categories existed fall back to ClassifyContent.
func (n Notification) Badge() NotificationCategory {
	switch n.Category {
	case CategoryApproved, CategoryRejected:
		return n.Category
	case "":
		return ClassifyContent(n.Content)
	}
	return CategoryOther
}

// ClassifyContent derives a badge from free text: "accepted" wins over "rejected".
func ClassifyContent(content string) NotificationCategory {
	if strings.Contains(content, "accepted") {
		return CategoryApproved
	}
	if strings.Contains(content, "rejected") {
		return CategoryRejected
	}
	return CategoryOther
}
