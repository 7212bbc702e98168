package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryUsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	alice := &models.User{Firstname: "Alice", Email: "a@x.com"}
	if err := s.Users.Insert(ctx, alice); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if alice.ID.IsZero() {
		t.Fatalf("expected insert to assign an id")
	}

	err := s.Users.Insert(ctx, &models.User{Firstname: "Other", Email: "a@x.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	bob := &models.User{Firstname: "Bob", Email: "b@x.com"}
	if err := s.Users.Insert(ctx, bob); err != nil {
		t.Fatalf("insert: %v", err)
	}
	email := "a@x.com"
	if _, err := s.Users.Update(ctx, bob.ID, UserUpdate{Email: &email}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on update, got %v", err)
	}
}

func TestMemoryUsersUpdateAndStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &models.User{Firstname: "Bob", Lastname: "X", Email: "b@x.com", Status: models.StatusPending}
	if err := s.Users.Insert(ctx, u); err != nil {
		t.Fatalf("insert: %v", err)
	}

	age := 41
	addr := "Main St"
	updated, err := s.Users.Update(ctx, u.ID, UserUpdate{Age: &age, Address: &addr})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Age != 41 || updated.Address != "Main St" || updated.Firstname != "Bob" {
		t.Fatalf("unexpected user after update: %+v", updated)
	}

	if err := s.Users.SetDoctorStatus(ctx, u.ID, false, ""); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _ := s.Users.FindByID(ctx, u.ID)
	if got.Status != models.StatusPending {
		t.Fatalf("empty status must leave status unchanged, got %q", got.Status)
	}

	if err := s.Users.SetDoctorStatus(ctx, primitive.NewObjectID(), true, models.StatusAccepted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryDoctorsOnePerUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	userID := primitive.NewObjectID()

	if err := s.Doctors.Insert(ctx, &models.Doctor{UserID: userID, Specialization: "Cardio"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Doctors.Insert(ctx, &models.Doctor{UserID: userID}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := s.Doctors.SetApproved(ctx, userID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approved, _ := s.Doctors.List(ctx, DoctorFilter{Approved: true})
	if len(approved) != 1 {
		t.Fatalf("expected 1 approved doctor, got %d", len(approved))
	}
	excluded, _ := s.Doctors.List(ctx, DoctorFilter{Approved: true, ExcludeUserID: userID})
	if len(excluded) != 0 {
		t.Fatalf("expected exclusion to hide the doctor, got %d", len(excluded))
	}

	if err := s.Doctors.DeleteByUserID(ctx, userID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Doctors.DeleteByUserID(ctx, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAppointmentFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	patient := primitive.NewObjectID()
	doctor := primitive.NewObjectID()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	seed := []models.Appointment{
		{UserID: patient, DoctorID: doctor, Date: "2024-01-10", Status: models.AppointmentPending, CreatedAt: base},
		{UserID: patient, DoctorID: doctor, Date: "2024-01-11", Status: models.AppointmentCompleted, CreatedAt: base.Add(time.Hour)},
		{UserID: doctor, DoctorID: patient, Date: "2024-01-10", Status: models.AppointmentPending, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		if err := s.Appointments.Insert(ctx, &seed[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	cases := []struct {
		name     string
		filter   AppointmentFilter
		expected int
	}{
		{"all", AppointmentFilter{}, 3},
		{"by patient", AppointmentFilter{UserID: patient}, 2},
		{"doctor open", AppointmentFilter{DoctorID: doctor, ExcludeStatus: models.AppointmentCompleted}, 1},
		{"by date and status", AppointmentFilter{Date: "2024-01-10", Status: models.AppointmentPending}, 2},
	}
	for _, c := range cases {
		got, err := s.Appointments.List(ctx, c.filter)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if len(got) != c.expected {
			t.Fatalf("%s: expected %d, got %d", c.name, c.expected, len(got))
		}
	}

	all, _ := s.Appointments.List(ctx, AppointmentFilter{})
	if !all[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("expected newest first, got %v", all[0].CreatedAt)
	}

	n, _ := s.Appointments.DeleteByUserID(ctx, patient)
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
}

func TestMemoryTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &models.User{Email: "a@x.com"}
	if err := s.Users.Insert(ctx, u); err != nil {
		t.Fatalf("insert: %v", err)
	}

	boom := errors.New("boom")
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.Users.SetDoctorStatus(ctx, u.ID, true, models.StatusAccepted); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.Users.FindByID(ctx, u.ID)
	if got.IsDoctor || got.Status != "" {
		t.Fatalf("expected rollback, got %+v", got)
	}
}

func TestMemoryRollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.Users.Insert(ctx, &models.User{Email: "tx@x.com"}); err != nil {
				return err
			}
			close(started)
			<-release
			return errors.New("boom")
		})
	}()
	<-started

	outside := &models.User{Email: "outside@x.com"}
	inserted := make(chan error, 1)
	go func() { inserted <- s.Users.Insert(ctx, outside) }()

	select {
	case err := <-inserted:
		t.Fatalf("insert should wait for the running transaction, got %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if err := <-txDone; err == nil {
		t.Fatalf("expected the transaction to fail")
	}
	if err := <-inserted; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Users.FindByID(ctx, outside.ID); err != nil {
		t.Fatalf("write made outside the transaction was lost: %v", err)
	}
	if _, err := s.Users.FindByEmail(ctx, "tx@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the transaction insert to be rolled back, got %v", err)
	}
}

func TestMemoryNestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			return s.Users.Insert(ctx, &models.User{Email: "n@x.com"})
		})
	})
	if err != nil {
		t.Fatalf("nested transaction: %v", err)
	}
	if _, err := s.Users.FindByEmail(ctx, "n@x.com"); err != nil {
		t.Fatalf("find: %v", err)
	}
}
