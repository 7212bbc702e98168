package service

import (
	"context"
	"testing"

	"github.com/raushankrgupta/doctor-appointment/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBookingScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.register(t, "Alice", "A", "alice@x.com", models.RolePatient)
	bob := env.register(t, "Bob", "X", "bob@x.com", models.RoleDoctor)
	admin, err := env.svc.Accounts.CreateAdmin(ctx, RegisterInput{Firstname: "Ada", Lastname: "Min", Email: "admin@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if _, err := env.svc.Doctors.SubmitApplication(ctx, bob.ID, DoctorInput{Specialization: "Cardiology", Experience: 5, Fees: 500}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := env.svc.Doctors.Approve(ctx, bob.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	doctors, err := env.svc.Doctors.ListDoctors(ctx, primitive.NilObjectID, "")
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if len(doctors) != 1 || doctors[0].Specialization != "Cardiology" {
		t.Fatalf("expected one Cardiology doctor, got %+v", doctors)
	}

	appt, err := env.svc.Appointments.Book(ctx, alice.ID, BookingInput{DoctorID: bob.ID, Date: "2025-06-01", Time: "10:00"})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	bobList, _ := env.svc.Appointments.ListForCaller(ctx, bob.ID, models.RoleDoctor)
	if len(bobList) != 1 || bobList[0].Status != models.AppointmentPending {
		t.Fatalf("expected one pending appointment for bob, got %+v", bobList)
	}

	if _, err := env.svc.Appointments.Complete(ctx, CompleteInput{AppointmentID: appt.ID, DoctorID: bob.ID, DoctorName: "Bob X"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	aliceList, _ := env.svc.Appointments.ListForCaller(ctx, alice.ID, models.RolePatient)
	if len(aliceList) != 1 || aliceList[0].Status != models.AppointmentCompleted {
		t.Fatalf("expected alice's appointment to be Completed, got %+v", aliceList)
	}
	bobList, _ = env.svc.Appointments.ListForCaller(ctx, bob.ID, models.RoleDoctor)
	if len(bobList) != 0 {
		t.Fatalf("completed appointments leave the doctor's list")
	}

	aliceNotes, _ := env.svc.Notifications.ListForCaller(ctx, alice.ID)
	if len(aliceNotes) != 2 || aliceNotes[0].Content != "Your appointment with Bob X has been completed" {
		t.Fatalf("unexpected notifications for alice %+v", aliceNotes)
	}
	adminNotes, _ := env.svc.Notifications.ListForCaller(ctx, admin.ID)
	if len(adminNotes) != 0 {
		t.Fatalf("admin must not receive notifications, got %d", len(adminNotes))
	}
}
