package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingInput describes the requested slot plus the patient snapshot
type BookingInput struct {
	DoctorID       primitive.ObjectID
	Date           string
	Time           string
	Age            int
	BloodGroup     string
	Gender         string
	Number         string
	FamilyDiseases string
}

// CompleteInput identifies the appointment to close. DoctorName is used in the
// patient's notification; when empty the doctor's stored name is used.
type CompleteInput struct {
	AppointmentID primitive.ObjectID
	DoctorID      primitive.ObjectID
	DoctorName    string
}

type AppointmentService struct {
	store         *store.Store
	pictures      PictureStorage
	notifications *NotificationService
	now           func() time.Time
}

// Book creates a pending appointment with an approved doctor. Overlapping
// bookings of the same slot are accepted.
func (s *AppointmentService) Book(ctx context.Context, patientID primitive.ObjectID, in BookingInput) (*models.AppointmentView, error) {
	if in.DoctorID.IsZero() {
		return nil, Validation("Doctor is required")
	}
	if in.DoctorID == patientID {
		return nil, Validation("You cannot book an appointment with yourself")
	}
	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return nil, Validation("Date must be in YYYY-MM-DD format")
	}
	if strings.TrimSpace(in.Time) == "" {
		return nil, Validation("Time is required")
	}
	if in.Age < 0 {
		return nil, Validation("Age cannot be negative")
	}

	patient, err := s.store.Users.FindByID(ctx, patientID)
	if err != nil {
		return nil, storeError(err, "User not found", "Unable to book appointment")
	}
	doctor, err := s.store.Doctors.FindByUserID(ctx, in.DoctorID)
	if err != nil {
		return nil, storeError(err, "Doctor not found", "Unable to book appointment")
	}
	if !doctor.IsDoctor {
		return nil, NotFound("Doctor not found")
	}
	doctorUser, err := s.store.Users.FindByID(ctx, in.DoctorID)
	if err != nil {
		return nil, storeError(err, "Doctor not found", "Unable to book appointment")
	}

	now := s.now()
	appointment := &models.Appointment{
		UserID:         patientID,
		DoctorID:       in.DoctorID,
		Date:           in.Date,
		Time:           strings.TrimSpace(in.Time),
		Age:            in.Age,
		BloodGroup:     in.BloodGroup,
		Gender:         in.Gender,
		Number:         in.Number,
		FamilyDiseases: in.FamilyDiseases,
		Status:         models.AppointmentPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var notes []models.Notification
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		notes = notes[:0]
		if err := s.store.Appointments.Insert(ctx, appointment); err != nil {
			return err
		}
		n, err := s.notifications.Record(ctx, patientID,
			fmt.Sprintf("You booked an appointment with Dr. %s for %s %s", doctorUser.FullName(), appointment.Date, appointment.Time),
			models.CategoryBooked)
		if err != nil {
			return err
		}
		notes = append(notes, n)
		n, err = s.notifications.Record(ctx, in.DoctorID,
			fmt.Sprintf("You have an appointment with %s for %s %s", patient.FullName(), appointment.Date, appointment.Time),
			models.CategoryBooked)
		if err != nil {
			return err
		}
		notes = append(notes, n)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "Doctor not found", "Unable to book appointment")
	}
	s.notifications.Publish(notes...)

	return &models.AppointmentView{
		Appointment: *appointment,
		User:        withPictureURL(ctx, s.pictures, patient),
		Doctor:      withPictureURL(ctx, s.pictures, doctorUser),
	}, nil
}

// ListForCaller returns the caller's appointments, newest first. Doctors see
// their open appointments, patients see all of theirs, and an empty role lists
// every appointment.
func (s *AppointmentService) ListForCaller(ctx context.Context, callerID primitive.ObjectID, role models.Role) ([]models.AppointmentView, error) {
	var filter store.AppointmentFilter
	switch role {
	case models.RoleDoctor:
		filter = store.AppointmentFilter{DoctorID: callerID, ExcludeStatus: models.AppointmentCompleted}
	case models.RolePatient:
		filter = store.AppointmentFilter{UserID: callerID}
	case "":
	default:
		return nil, Validation("Unknown role")
	}
	return s.list(ctx, filter)
}

// ListAll is the administrative listing, optionally narrowed to one doctor
func (s *AppointmentService) ListAll(ctx context.Context, doctorID primitive.ObjectID) ([]models.AppointmentView, error) {
	return s.list(ctx, store.AppointmentFilter{DoctorID: doctorID})
}

func (s *AppointmentService) list(ctx context.Context, filter store.AppointmentFilter) ([]models.AppointmentView, error) {
	appointments, err := s.store.Appointments.List(ctx, filter)
	if err != nil {
		return nil, Internal("Unable to get appointments", err)
	}
	return s.populate(ctx, appointments)
}

// Complete moves a pending appointment to Completed and notifies both parties.
// Completing an already completed appointment changes nothing.
func (s *AppointmentService) Complete(ctx context.Context, in CompleteInput) (*models.AppointmentView, error) {
	appointment, err := s.store.Appointments.FindByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, storeError(err, "Appointment not found", "Unable to complete appointment")
	}
	if !in.DoctorID.IsZero() && in.DoctorID != appointment.DoctorID {
		return nil, Forbidden("Appointment does not belong to this doctor")
	}
	if appointment.Status == models.AppointmentCompleted {
		views, err := s.populate(ctx, []models.Appointment{*appointment})
		if err != nil {
			return nil, err
		}
		return &views[0], nil
	}

	users, err := s.store.Users.FindByIDs(ctx, []primitive.ObjectID{appointment.UserID, appointment.DoctorID})
	if err != nil {
		return nil, Internal("Unable to complete appointment", err)
	}
	doctorName := strings.TrimSpace(in.DoctorName)
	if doctorName == "" {
		doctorName = users[appointment.DoctorID].FullName()
	}
	patientName := users[appointment.UserID].FullName()

	var notes []models.Notification
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		notes = notes[:0]
		if err := s.store.Appointments.SetStatus(ctx, appointment.ID, models.AppointmentCompleted); err != nil {
			return err
		}
		n, err := s.notifications.Record(ctx, appointment.UserID,
			fmt.Sprintf("Your appointment with %s has been completed", doctorName),
			models.CategoryCompleted)
		if err != nil {
			return err
		}
		notes = append(notes, n)
		n, err = s.notifications.Record(ctx, appointment.DoctorID,
			fmt.Sprintf("Your appointment with %s has been completed", patientName),
			models.CategoryCompleted)
		if err != nil {
			return err
		}
		notes = append(notes, n)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "Appointment not found", "Unable to complete appointment")
	}
	s.notifications.Publish(notes...)

	appointment.Status = models.AppointmentCompleted
	appointment.UpdatedAt = s.now()
	view := models.AppointmentView{Appointment: *appointment}
	if u, ok := users[appointment.UserID]; ok {
		view.User = withPictureURL(ctx, s.pictures, &u)
	}
	if u, ok := users[appointment.DoctorID]; ok {
		view.Doctor = withPictureURL(ctx, s.pictures, &u)
	}
	return &view, nil
}

// DueOn returns pending appointments on date, used by the reminder job
func (s *AppointmentService) DueOn(ctx context.Context, date string) ([]models.AppointmentView, error) {
	return s.list(ctx, store.AppointmentFilter{Date: date, Status: models.AppointmentPending})
}

func (s *AppointmentService) populate(ctx context.Context, appointments []models.Appointment) ([]models.AppointmentView, error) {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, a := range appointments {
		for _, id := range []primitive.ObjectID{a.UserID, a.DoctorID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, Internal("Unable to load appointment users", err)
	}

	views := make([]models.AppointmentView, 0, len(appointments))
	for _, a := range appointments {
		v := models.AppointmentView{Appointment: a}
		if u, ok := users[a.UserID]; ok {
			v.User = withPictureURL(ctx, s.pictures, &u)
		}
		if u, ok := users[a.DoctorID]; ok {
			v.Doctor = withPictureURL(ctx, s.pictures, &u)
		}
		views = append(views, v)
	}
	return views, nil
}
