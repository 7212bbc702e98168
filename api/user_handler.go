package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/raushankrgupta/doctor-appointment/service"
	"github.com/raushankrgupta/doctor-appointment/utils"
)

const maxPictureSize = 10 << 20

// LoginHandler exchanges credentials for a session token
func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Login API", &logMessageBuilder)

	var req LoginRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	token, err := a.svc.Accounts.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password, Role: req.Role})
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("User %s logged in", req.Email))
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "User logged in successfully",
		"token":   token,
	})
}

func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Register API", &logMessageBuilder)

	var req RegisterRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	user, err := a.svc.Accounts.Register(r.Context(), req.input())
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Registered user %s", user.ID.Hex()))
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (a *API) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get User API", &logMessageBuilder)

	id, err := parseID(chi.URLParam(r, "id"), "user id")
	if err != nil || id.IsZero() {
		utils.RespondError(w, &logMessageBuilder, "Invalid user id", http.StatusBadRequest)
		return
	}

	user, err := a.svc.Accounts.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

func (a *API) GetAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Get All Users API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	users, err := a.svc.Accounts.ListExcept(r.Context(), caller.UserID)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, users)
}

func (a *API) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Update Profile API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	var req UpdateProfileRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	user, err := a.svc.Accounts.UpdateProfile(r.Context(), caller.UserID, req.input())
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated successfully",
		"user":    user,
	})
}

func (a *API) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Change Password API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	var req ChangePasswordRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	err := a.svc.Accounts.ChangePassword(r.Context(), caller.UserID, service.ChangePasswordInput{
		CurrentPassword:    req.CurrentPassword,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// UploadPictureHandler stores the multipart "pic" file as the caller's profile picture
func (a *API) UploadPictureHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Upload Picture API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxPictureSize+1<<20)
	if err := r.ParseMultipartForm(maxPictureSize); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Error parsing form data: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("pic")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Picture file 'pic' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	user, err := a.svc.Accounts.UploadPicture(r.Context(), caller.UserID, file, header.Filename, contentType)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Uploaded picture for %s", caller.UserID.Hex()))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Picture uploaded successfully",
		"user":    user,
	})
}

// DeleteUserHandler deletes the user named in the body, or the caller when
// the body names nobody. Only admins may delete other users.
func (a *API) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Delete User API", &logMessageBuilder)

	caller, _ := GetCallerFromContext(r.Context())
	var req DeleteUserRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	target, err := parseID(req.UserID, "user id")
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	if target.IsZero() {
		target = caller.UserID
	}
	if target != caller.UserID && !caller.IsAdmin {
		utils.RespondError(w, &logMessageBuilder, "Access denied: admin only", http.StatusForbidden)
		return
	}

	if err := a.svc.Accounts.Delete(r.Context(), target); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Deleted user %s", target.Hex()))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (a *API) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Forgot Password API", &logMessageBuilder)

	var req ForgotPasswordRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	if err := a.svc.Accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}

func (a *API) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLog("Reset Password API", &logMessageBuilder)

	id, err := parseID(chi.URLParam(r, "id"), "user id")
	if err != nil || id.IsZero() {
		utils.RespondError(w, &logMessageBuilder, "Invalid or expired token", http.StatusBadRequest)
		return
	}
	var req ResetPasswordRequest
	if err := decodeRequest(r, &req); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	if err := a.svc.Accounts.ResetPassword(r.Context(), id, chi.URLParam(r, "token"), req.Password); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}
