package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/doctor-appointment/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetAllDoctorsHandler lists approved doctors, hiding the caller when signed in
func (a *API) GetAllDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get All Doctors API", &logMessageBuilder)

	exclude := primitive.NilObjectID
	if caller, ok := GetCallerFromContext(r.Context()); ok {
		exclude = caller.UserID
	}

	doctors, err := a.svc.Doctors.ListDoctors(r.Context(), exclude, r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, doctors)
}

func (a *API) GetNotDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get Not Doctors API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	doctors, err := a.svc.Doctors.ListNotDoctors(r.Context(), caller.UserID)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, doctors)
}

func (a *API) GetAllApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get All Applications API", &logMessageBuilder)

	applications, err := a.svc.Doctors.ListApplications(r.Context())
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, applications)
}

func (a *API) GetMyDoctorProfileHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get My Doctor Profile API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	profile, err := a.svc.Doctors.GetOwnProfile(r.Context(), caller.UserID)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

func (a *API) ApplyForDoctorHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Apply For Doctor API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	var req DoctorRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	doctor, err := a.svc.Doctors.SubmitApplication(r.Context(), caller.UserID, req.input())
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Application %s submitted", doctor.ID.Hex()))
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Application submitted successfully",
		"doctor":  doctor,
	})
}

func (a *API) UpdateDoctorProfileHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Update Doctor Profile API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	var req DoctorRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	profile, err := a.svc.Doctors.UpdateApplication(r.Context(), caller.UserID, req.input())
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Doctor profile updated successfully",
		"doctor":  profile,
	})
}

func (a *API) DeleteDoctorHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Delete Doctor API", &logMessageBuilder)

	var req DeleteDoctorRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	id, err := parseID(req.UserID, "user id")
	if err != nil || id.IsZero() {
		utils.RespondError(w, &logMessageBuilder, "A valid userId is required", http.StatusBadRequest)
		return
	}

	if err := a.svc.Doctors.DeleteDoctor(r.Context(), id); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Doctor %s deleted", id.Hex()))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Doctor deleted successfully"})
}

func (a *API) ApproveDoctorHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Approve Doctor API", &logMessageBuilder)

	id, ok := a.decisionTarget(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	if err := a.svc.Doctors.Approve(r.Context(), id); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Application of %s accepted", id.Hex()))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Application accepted successfully"})
}

func (a *API) RejectDoctorHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Reject Doctor API", &logMessageBuilder)

	id, ok := a.decisionTarget(w, r, &logMessageBuilder)
	if !ok {
		return
	}
	if err := a.svc.Doctors.Reject(r.Context(), id); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Application of %s rejected", id.Hex()))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Application rejected successfully"})
}

func (a *API) decisionTarget(w http.ResponseWriter, r *http.Request, logMessageBuilder *strings.Builder) (primitive.ObjectID, bool) {
	var req DoctorDecisionRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, logMessageBuilder, err)
		return primitive.NilObjectID, false
	}
	id, err := parseID(req.ID, "user id")
	if err != nil || id.IsZero() {
		utils.RespondError(w, logMessageBuilder, "A valid id is required", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}
