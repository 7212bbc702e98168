package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/service"
	"github.com/raushankrgupta/doctor-appointment/utils"
)

func (a *API) BookAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Book Appointment API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	var req BookAppointmentRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	doctorID, err := parseID(req.DoctorID, "doctor id")
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	appointment, err := a.svc.Appointments.Book(r.Context(), caller.UserID, service.BookingInput{
		DoctorID:       doctorID,
		Date:           req.Date,
		Time:           req.Time,
		Age:            int(req.Age),
		BloodGroup:     req.BloodGroup,
		Gender:         req.Gender,
		Number:         req.Number,
		FamilyDiseases: req.FamilyDiseases,
	})
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Appointment %s booked", appointment.ID.Hex()))
	utils.RespondJSON(w, http.StatusCreated, appointment)
}

// GetAllAppointmentsHandler lists every appointment for admins, optionally
// narrowed by ?doctorId=, and the caller's own appointments for everyone else
func (a *API) GetAllAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get All Appointments API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())

	var (
		appointments []models.AppointmentView
		err          error
	)
	if caller.IsAdmin {
		doctorID, perr := parseID(r.URL.Query().Get("doctorId"), "doctor id")
		if perr != nil {
			respondServiceError(w, &logMessageBuilder, perr)
			return
		}
		appointments, err = a.svc.Appointments.ListAll(r.Context(), doctorID)
	} else {
		role := caller.Role
		if role == "" {
			role = models.RolePatient
		}
		appointments, err = a.svc.Appointments.ListForCaller(r.Context(), caller.UserID, role)
	}
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, appointments)
}

// CompleteAppointmentHandler closes an appointment. Admins may close any
// appointment; doctors only their own.
func (a *API) CompleteAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Complete Appointment API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	var req CompleteAppointmentRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	appointmentID, err := parseID(req.AppointmentID, "appointment id")
	if err != nil || appointmentID.IsZero() {
		utils.RespondError(w, &logMessageBuilder, "A valid appointid is required", http.StatusBadRequest)
		return
	}
	doctorID, err := parseID(req.DoctorID, "doctor id")
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	if !caller.IsAdmin {
		if caller.Role != models.RoleDoctor || (!doctorID.IsZero() && doctorID != caller.UserID) {
			utils.RespondError(w, &logMessageBuilder, "Only the appointment's doctor can complete it", http.StatusForbidden)
			return
		}
		doctorID = caller.UserID
	}

	appointment, err := a.svc.Appointments.Complete(r.Context(), service.CompleteInput{
		AppointmentID: appointmentID,
		DoctorID:      doctorID,
		DoctorName:    req.DoctorName,
	})
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Appointment %s completed", appointmentID.Hex()))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Appointment completed",
		"appointment": appointment,
	})
}
