// Package service holds the business rules of the booking platform. Every
// operation returns *Error on failure so callers can map it to a status.
package service

import (
	"context"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/store"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"golang.org/x/crypto/bcrypt"
)

// Deps are the collaborators shared by all services. Mailer, Pictures, Cache
// and Publisher are optional.
type Deps struct {
	Store     *store.Store
	Tokens    *utils.TokenManager
	Mailer    Mailer
	Pictures  PictureStorage
	Cache     Cache
	Publisher Publisher
	ClientURL string
	HashCost  int
	Now       func() time.Time
}

type Services struct {
	Accounts      *AccountService
	Doctors       *DoctorService
	Appointments  *AppointmentService
	Notifications *NotificationService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.HashCost == 0 {
		d.HashCost = bcrypt.DefaultCost
	}
	if d.Mailer == nil {
		d.Mailer = utils.LogMailer{}
	}

	notifications := &NotificationService{store: d.Store, publisher: d.Publisher, now: d.Now}
	doctors := &DoctorService{store: d.Store, cache: d.Cache, pictures: d.Pictures, notifications: notifications, now: d.Now}
	return &Services{
		Accounts:      &AccountService{deps: d, doctors: doctors},
		Doctors:       doctors,
		Appointments:  &AppointmentService{store: d.Store, pictures: d.Pictures, notifications: notifications, now: d.Now},
		Notifications: notifications,
	}
}

// withPictureURL returns a copy of u whose Pic is a URL the client can load
func withPictureURL(ctx context.Context, pictures PictureStorage, u *models.User) *models.User {
	if u == nil || u.Pic == "" {
		return u
	}
	out := *u
	out.Pic = utils.PresignImageURL(ctx, pictures, out.Pic)
	return &out
}
