// Package store persists users, doctor applications, appointments and
// notifications. Two implementations exist: MongoDB for production and an
// in-memory one for tests and local runs.
package store

import (
	"context"
	"errors"

	"github.com/raushankrgupta/doctor-appointment/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// UserUpdate lists the user fields a profile update may change; nil means unchanged
type UserUpdate struct {
	Firstname *string
	Lastname  *string
	Email     *string
	Password  *string // already hashed
	Age       *int
	Gender    *string
	Mobile    *string
	Address   *string
	Pic       *string
}

type UserRepository interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	// List returns every user except excludeID (zero value excludes nobody)
	List(ctx context.Context, excludeID primitive.ObjectID) ([]models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error)
	// SetDoctorStatus sets isDoctor and, when status is not empty, status
	SetDoctorStatus(ctx context.Context, id primitive.ObjectID, isDoctor bool, status string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type DoctorFilter struct {
	Approved      bool
	ExcludeUserID primitive.ObjectID
}

type DoctorRepository interface {
	Insert(ctx context.Context, doctor *models.Doctor) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, specialization string, experience, fees int) (*models.Doctor, error)
	SetApproved(ctx context.Context, userID primitive.ObjectID, approved bool) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
	// List is sorted newest first
	List(ctx context.Context, filter DoctorFilter) ([]models.Doctor, error)
}

// AppointmentFilter zero values match everything
type AppointmentFilter struct {
	UserID        primitive.ObjectID
	DoctorID      primitive.ObjectID
	Status        models.AppointmentStatus
	ExcludeStatus models.AppointmentStatus
	Date          string
}

type AppointmentRepository interface {
	Insert(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.AppointmentStatus) error
	// List is sorted newest first
	List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error)
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type NotificationRepository interface {
	Insert(ctx context.Context, notification *models.Notification) error
	// ListByUserID is sorted newest first
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
}

// Transactor runs fn so that its writes become visible together, when the backend supports it
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store groups the repositories a service needs
type Store struct {
	Users         UserRepository
	Doctors       DoctorRepository
	Appointments  AppointmentRepository
	Notifications NotificationRepository
	Tx            Transactor
}
