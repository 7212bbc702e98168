// Package jobs runs scheduled background work
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/service"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"github.com/robfig/cron/v3"
)

const runTimeout = 5 * time.Minute

// Reminders notifies patients of the pending appointments dated today
type Reminders struct {
	appointments  *service.AppointmentService
	notifications *service.NotificationService
	mailer        service.Mailer
	scheduler     *cron.Cron

	Now func() time.Time
}

// NewReminders builds the job. mailer may be nil, in which case only
// notifications are written.
func NewReminders(svc *service.Services, mailer service.Mailer) *Reminders {
	return &Reminders{
		appointments:  svc.Appointments,
		notifications: svc.Notifications,
		mailer:        mailer,
		Now:           time.Now,
	}
}

// Start schedules the job with a standard five field cron spec
func (r *Reminders) Start(spec string) error {
	r.scheduler = cron.New()
	if _, err := r.scheduler.AddFunc(spec, r.run); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	r.scheduler.Start()
	utils.Logger.Info().Str("schedule", spec).Msg("Reminder job scheduled")
	return nil
}

// Stop halts the scheduler; the returned context is done once a running job finishes
func (r *Reminders) Stop() context.Context {
	if r.scheduler == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return r.scheduler.Stop()
}

func (r *Reminders) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	date := r.Now().Format(models.DateLayout)
	sent, err := r.RunOnce(ctx, date)
	if err != nil {
		utils.Logger.Error().Err(err).Str("date", date).Msg("Reminder run failed")
		return
	}
	utils.Logger.Info().Str("date", date).Int("reminders", sent).Msg("Reminder run finished")
}

// RunOnce writes one reminder notification per pending appointment on date
// and emails the patient when a mailer is set. Email failures are logged and
// skipped. It returns the number of notifications written.
func (r *Reminders) RunOnce(ctx context.Context, date string) (int, error) {
	due, err := r.appointments.DueOn(ctx, date)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range due {
		if a.User == nil {
			continue
		}
		doctorName := "your doctor"
		if a.Doctor != nil {
			doctorName = "Dr. " + a.Doctor.FullName()
		}
		content := fmt.Sprintf("Reminder: you have an appointment with %s today at %s", doctorName, a.Time)

		if _, err := r.notifications.Create(ctx, a.UserID, content, models.CategoryReminder); err != nil {
			return sent, err
		}
		sent++

		if r.mailer == nil {
			continue
		}
		html := fmt.Sprintf("<p>Dear %s,</p><p>This is a reminder for your appointment with %s on %s at %s.</p>",
			a.User.Firstname, doctorName, a.Date, a.Time)
		if err := r.mailer.SendEmail(ctx, a.User.FullName(), a.User.Email, "Appointment reminder", content, html); err != nil {
			utils.Logger.Warn().Err(err).Str("appointment", a.ID.Hex()).Msg("Reminder email failed")
		}
	}
	return sent, nil
}
