package service

import (
	"context"
	"io"

	"github.com/raushankrgupta/doctor-appointment/models"
)

// Mailer delivers a single email
type Mailer interface {
	SendEmail(ctx context.Context, toName, toEmail, subject, textContent, htmlContent string) error
}

// PictureStorage keeps uploaded profile pictures
type PictureStorage interface {
	Upload(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectKey string) (string, error)
}

// Cache stores serialized values; implementations may expire entries
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	DeleteAll(ctx context.Context) error
}

// Publisher pushes freshly stored notifications to live subscribers
type Publisher interface {
	Publish(n models.Notification)
}
