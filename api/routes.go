// Package api exposes the booking services over HTTP/JSON under /api.
package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/raushankrgupta/doctor-appointment/service"
	"github.com/raushankrgupta/doctor-appointment/utils"
)

// API holds the handlers' collaborators
type API struct {
	svc    *service.Services
	tokens *utils.TokenManager
	hub    *NotificationHub
}

// NewAPI builds the handler set. hub may be nil, which disables the stream route.
func NewAPI(svc *service.Services, tokens *utils.TokenManager, hub *NotificationHub) *API {
	return &API{svc: svc, tokens: tokens, hub: hub}
}

// InitRoutes mounts every route on r
func (a *API) InitRoutes(r chi.Router) {
	r.Get("/health", a.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/login", a.LoginHandler)
			r.Post("/register", a.RegisterHandler)
			r.Post("/forgotpassword", a.ForgotPasswordHandler)
			r.Put("/resetpassword/{id}/{token}", a.ResetPasswordHandler)

			r.Group(func(r chi.Router) {
				r.Use(a.Auth)
				r.Get("/getuser/{id}", a.GetUserHandler)
				r.Put("/updateprofile", a.UpdateProfileHandler)
				r.Put("/changepassword", a.ChangePasswordHandler)
				r.Put("/uploadpic", a.UploadPictureHandler)
				r.Delete("/deleteuser", a.DeleteUserHandler)
				r.With(RequireAdmin).Get("/getallusers", a.GetAllUsersHandler)
			})
		})

		r.Route("/doctor", func(r chi.Router) {
			r.With(a.OptionalAuth).Get("/getalldoctors", a.GetAllDoctorsHandler)

			r.Group(func(r chi.Router) {
				r.Use(a.Auth)
				r.Get("/getmydoctorprofile", a.GetMyDoctorProfileHandler)
				r.Post("/applyfordoctor", a.ApplyForDoctorHandler)
				r.Put("/updatedoctorprofile", a.UpdateDoctorProfileHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(a.Auth, RequireAdmin)
				r.Get("/getnotdoctors", a.GetNotDoctorsHandler)
				r.Get("/getallapplications", a.GetAllApplicationsHandler)
				r.Put("/deletedoctor", a.DeleteDoctorHandler)
				for _, path := range []string{"/approveddoctor", "/acceptdoctor"} {
					r.Put(path, a.ApproveDoctorHandler)
					r.Patch(path, a.ApproveDoctorHandler)
				}
				for _, path := range []string{"/rejectedapplication", "/rejectdoctor"} {
					r.Put(path, a.RejectDoctorHandler)
					r.Patch(path, a.RejectDoctorHandler)
				}
			})
		})

		r.Route("/appointment", func(r chi.Router) {
			r.Use(a.Auth)
			r.Post("/bookappointment", a.BookAppointmentHandler)
			r.Get("/getallappointments", a.GetAllAppointmentsHandler)
			r.Put("/completed", a.CompleteAppointmentHandler)
		})

		r.Route("/notification", func(r chi.Router) {
			r.With(a.Auth).Get("/getallnotifs", a.GetAllNotificationsHandler)
			r.With(a.StreamAuth).Get("/stream", a.StreamNotificationsHandler)
		})
	})
}

// HealthHandler reports liveness
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
