package service

import (
	"context"
	"testing"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func countDoctors(t *testing.T, env *testEnv, userID primitive.ObjectID) int {
	t.Helper()
	ctx := context.Background()
	n := 0
	for _, approved := range []bool{true, false} {
		docs, err := env.store.Doctors.List(ctx, store.DoctorFilter{Approved: approved})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, d := range docs {
			if d.UserID == userID {
				n++
			}
		}
	}
	return n
}

func TestSubmitApplication(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.register(t, "Bob", "X", "bob@x.com", models.RoleDoctor)

	doc, err := env.svc.Doctors.SubmitApplication(ctx, bob.ID, DoctorInput{Specialization: "Cardiology", Experience: 5, Fees: 500})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if doc.IsDoctor {
		t.Fatalf("new application must be pending")
	}
	if countDoctors(t, env, bob.ID) != 1 {
		t.Fatalf("expected exactly one doctor record")
	}

	_, err = env.svc.Doctors.SubmitApplication(ctx, bob.ID, DoctorInput{Specialization: "Neurology", Experience: 1, Fees: 100})
	expectKind(t, err, KindConflict)
	if countDoctors(t, env, bob.ID) != 1 {
		t.Fatalf("second submission must not create a record")
	}
}

func TestSubmitApplicationValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.register(t, "Bob", "X", "bob@x.com", models.RoleDoctor)

	cases := []struct {
		name string
		in   DoctorInput
	}{
		{"missing specialization", DoctorInput{Experience: 1, Fees: 1}},
		{"negative experience", DoctorInput{Specialization: "ENT", Experience: -1}},
		{"negative fees", DoctorInput{Specialization: "ENT", Fees: -5}},
	}
	for _, c := range cases {
		_, err := env.svc.Doctors.SubmitApplication(ctx, bob.ID, c.in)
		if KindOf(err) != KindValidation {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
	}

	_, err := env.svc.Doctors.SubmitApplication(ctx, primitive.NewObjectID(), DoctorInput{Specialization: "ENT"})
	expectKind(t, err, KindNotFound)
}

func TestUpdateApplication(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.register(t, "Bob", "X", "bob@x.com", models.RoleDoctor)

	_, err := env.svc.Doctors.UpdateApplication(ctx, bob.ID, DoctorInput{Specialization: "ENT"})
	expectKind(t, err, KindNotFound)

	if _, err := env.svc.Doctors.SubmitApplication(ctx, bob.ID, DoctorInput{Specialization: "ENT", Experience: 1, Fees: 100}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	profile, err := env.svc.Doctors.UpdateApplication(ctx, bob.ID, DoctorInput{Specialization: "Cardiology", Experience: 7, Fees: 900})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.Specialization != "Cardiology" || profile.Experience != 7 || profile.Fees != 900 {
		t.Fatalf("unexpected profile %+v", profile.Doctor)
	}
	if profile.IsDoctor {
		t.Fatalf("update must not approve")
	}
	if profile.User == nil || profile.User.Email != "bob@x.com" {
		t.Fatalf("expected populated user, got %+v", profile.User)
	}
	if countDoctors(t, env, bob.ID) != 1 {
		t.Fatalf("update must not duplicate the record")
	}
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.register(t, "Bob", "X", "bob@x.com", models.RoleDoctor)

	err := env.svc.Doctors.Approve(ctx, bob.ID)
	expectKind(t, err, KindNotFound)
	err = env.svc.Doctors.Approve(ctx, primitive.NewObjectID())
	expectKind(t, err, KindNotFound)

	if _, err := env.svc.Doctors.SubmitApplication(ctx, bob.ID, DoctorInput{Specialization: "Cardiology", Experience: 5, Fees: 500}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	apps, _ := env.svc.Doctors.ListApplications(ctx)
	if len(apps) != 1 {
		t.Fatalf("expected one pending application, got %d", len(apps))
	}

	if err := env.svc.Doctors.Approve(ctx, bob.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	user, _ := env.store.Users.FindByID(ctx, bob.ID)
	if !user.IsDoctor || user.Status != models.StatusAccepted {
		t.Fatalf("user not approved: %+v", user)
	}
	doctors, _ := env.svc.Doctors.ListDoctors(ctx, primitive.NilObjectID, "")
	if len(doctors) != 1 || doctors[0].UserID != bob.ID {
		t.Fatalf("expected bob in doctor list, got %+v", doctors)
	}
	apps, _ = env.svc.Doctors.ListApplications(ctx)
	if len(apps) != 0 {
		t.Fatalf("approved doctor still listed as application")
	}

	notes, _ := env.svc.Notifications.ListForCaller(ctx, bob.ID)
	if len(notes) != 1 || notes[0].Category != models.CategoryApproved || notes[0].Content != msgApplicationAccepted {
		t.Fatalf("unexpected notifications %+v", notes)
	}
	if len(env.publisher.published) != 1 {
		t.Fatalf("expected the approval to be published")
	}

	// not idempotent for notifications
	if err := env.svc.Doctors.Approve(ctx, bob.ID); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	notes, _ = env.svc.Notifications.ListForCaller(ctx, bob.ID)
	if len(notes) != 2 {
		t.Fatalf("expected a duplicate notification, got %d", len(notes))
	}
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.register(t, "Bob", "X", "bob@x.com", models.RoleDoctor)

	err := env.svc.Doctors.Reject(ctx, primitive.NewObjectID())
	expectKind(t, err, KindNotFound)

	if _, err := env.svc.Doctors.SubmitApplication(ctx, bob.ID, DoctorInput{Specialization: "ENT"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := env.svc.Doctors.Reject(ctx, bob.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err = env.svc.Doctors.GetOwnProfile(ctx, bob.ID)
	expectKind(t, err, KindNotFound)

	user, _ := env.store.Users.FindByID(ctx, bob.ID)
	if user.IsDoctor || user.Status != models.StatusRejected {
		t.Fatalf("user not rejected: %+v", user)
	}
	notes, _ := env.svc.Notifications.ListForCaller(ctx, bob.ID)
	if len(notes) != 1 || notes[0].Badge != models.CategoryRejected {
		t.Fatalf("unexpected notifications %+v", notes)
	}

	// the user may apply again after a rejection
	if _, err := env.svc.Doctors.SubmitApplication(ctx, bob.ID, DoctorInput{Specialization: "ENT"}); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
}

func TestListDoctorsSearchAndExclusion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.approvedDoctor(t, "Bob", "Xavier", "bob@x.com", "Cardiology")
	env.approvedDoctor(t, "Carol", "Young", "carol@x.com", "Dermatology")

	cases := []struct {
		search   string
		exclude  primitive.ObjectID
		expected int
	}{
		{"", primitive.NilObjectID, 2},
		{"", bob.ID, 1},
		{"cardio", primitive.NilObjectID, 1},
		{"CAROL", primitive.NilObjectID, 1},
		{"bob xav", primitive.NilObjectID, 1},
		{"o", primitive.NilObjectID, 2},
		{"surgery", primitive.NilObjectID, 0},
	}
	for _, c := range cases {
		got, err := env.svc.Doctors.ListDoctors(ctx, c.exclude, c.search)
		if err != nil {
			t.Fatalf("%q: %v", c.search, err)
		}
		if len(got) != c.expected {
			t.Fatalf("%q: expected %d, got %d", c.search, c.expected, len(got))
		}
	}
}

func TestListDoctorsCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.approvedDoctor(t, "Bob", "X", "bob@x.com", "Cardiology")

	first, _ := env.svc.Doctors.ListDoctors(ctx, primitive.NilObjectID, "")
	if len(env.cache.data) != 1 {
		t.Fatalf("expected the list to be cached")
	}
	cached, _ := env.svc.Doctors.ListDoctors(ctx, primitive.NilObjectID, "")
	if len(cached) != 1 || cached[0].UserID != first[0].UserID || cached[0].User == nil {
		t.Fatalf("cached list differs: %+v", cached)
	}

	flushes := env.cache.flushes
	env.approvedDoctor(t, "Carol", "Y", "carol@x.com", "ENT")
	if env.cache.flushes == flushes {
		t.Fatalf("approval must invalidate the cache")
	}
	after, _ := env.svc.Doctors.ListDoctors(ctx, primitive.NilObjectID, "")
	if len(after) != 2 {
		t.Fatalf("expected fresh list with 2 doctors, got %d", len(after))
	}
}

func TestListNotDoctors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.register(t, "Bob", "X", "bob@x.com", models.RoleDoctor)
	carol := env.register(t, "Carol", "Y", "carol@x.com", models.RoleDoctor)
	for _, u := range []*models.User{bob, carol} {
		if _, err := env.svc.Doctors.SubmitApplication(ctx, u.ID, DoctorInput{Specialization: "ENT"}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	apps, _ := env.svc.Doctors.ListApplications(ctx)
	if len(apps) != 2 || apps[0].UserID != carol.ID {
		t.Fatalf("expected newest application first, got %+v", apps)
	}
	others, _ := env.svc.Doctors.ListNotDoctors(ctx, carol.ID)
	if len(others) != 1 || others[0].UserID != bob.ID {
		t.Fatalf("expected only bob, got %+v", others)
	}
}

func TestDeleteDoctorKeepsProviderAppointments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.approvedDoctor(t, "Bob", "X", "bob@x.com", "Cardiology")
	carol := env.approvedDoctor(t, "Carol", "Y", "carol@x.com", "ENT")
	alice := env.register(t, "Alice", "A", "alice@x.com", models.RolePatient)

	// alice books bob; bob books carol as a patient
	if _, err := env.svc.Appointments.Book(ctx, alice.ID, BookingInput{DoctorID: bob.ID, Date: "2025-06-01", Time: "10:00"}); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := env.svc.Appointments.Book(ctx, bob.ID, BookingInput{DoctorID: carol.ID, Date: "2025-06-02", Time: "11:00"}); err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := env.svc.Doctors.DeleteDoctor(ctx, bob.ID); err != nil {
		t.Fatalf("delete doctor: %v", err)
	}

	user, _ := env.store.Users.FindByID(ctx, bob.ID)
	if user.IsDoctor {
		t.Fatalf("user still flagged as doctor")
	}
	if _, err := env.svc.Doctors.GetOwnProfile(ctx, bob.ID); KindOf(err) != KindNotFound {
		t.Fatalf("doctor record not deleted: %v", err)
	}
	asPatient, _ := env.store.Appointments.List(ctx, store.AppointmentFilter{UserID: bob.ID})
	if len(asPatient) != 0 {
		t.Fatalf("appointments booked by bob must be deleted")
	}
	// appointments keyed by doctorId survive the deletion
	asDoctor, _ := env.store.Appointments.List(ctx, store.AppointmentFilter{DoctorID: bob.ID})
	if len(asDoctor) != 1 {
		t.Fatalf("expected alice's appointment with bob to remain, got %d", len(asDoctor))
	}

	err := env.svc.Doctors.DeleteDoctor(ctx, primitive.NewObjectID())
	expectKind(t, err, KindNotFound)
}
