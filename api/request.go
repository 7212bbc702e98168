package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/service"
)

// flexInt accepts both 5 and "5"; form inputs arrive as strings
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected a number, got %s", b)
	}
	*f = flexInt(n)
	return nil
}

type LoginRequest struct {
	Email    string      `json:"email" validate:"required"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role"`
}

type RegisterRequest struct {
	Firstname string      `json:"firstname" validate:"notblank"`
	Lastname  string      `json:"lastname" validate:"notblank"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=5"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=Patient Doctor"`
	Age       flexInt     `json:"age" validate:"min=0"`
	Gender    string      `json:"gender"`
	Mobile    string      `json:"mobile"`
	Address   string      `json:"address"`
	Pic       string      `json:"pic"`
}

func (req RegisterRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		Age:       int(req.Age),
		Gender:    req.Gender,
		Mobile:    req.Mobile,
		Address:   req.Address,
		Pic:       req.Pic,
	}
}

// UpdateProfileRequest leaves absent fields unchanged
type UpdateProfileRequest struct {
	Firstname *string  `json:"firstname" validate:"omitnil,notblank"`
	Lastname  *string  `json:"lastname" validate:"omitnil,notblank"`
	Email     *string  `json:"email" validate:"omitnil,email"`
	Password  *string  `json:"password" validate:"omitempty,min=5"` // empty keeps the current one
	Age       *flexInt `json:"age" validate:"omitnil,min=0"`
	Gender    *string  `json:"gender"`
	Mobile    *string  `json:"mobile"`
	Address   *string  `json:"address"`
}

func (req UpdateProfileRequest) input() service.ProfileInput {
	in := service.ProfileInput{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
		Gender:    req.Gender,
		Mobile:    req.Mobile,
		Address:   req.Address,
	}
	if req.Age != nil {
		age := int(*req.Age)
		in.Age = &age
	}
	return in
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=5"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"eqfield=NewPassword"`
}

// DeleteUserRequest names the user to delete; empty means the caller
type DeleteUserRequest struct {
	UserID string `json:"userId" validate:"omitempty,objectid"`
}

type DeleteDoctorRequest struct {
	UserID string `json:"userId" validate:"required,objectid"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=5"`
}

type DoctorRequest struct {
	Specialization string  `json:"specialization" validate:"notblank"`
	Experience     flexInt `json:"experience" validate:"min=0"`
	Fees           flexInt `json:"fees" validate:"min=0"`
}

func (req DoctorRequest) input() service.DoctorInput {
	return service.DoctorInput{
		Specialization: req.Specialization,
		Experience:     int(req.Experience),
		Fees:           int(req.Fees),
	}
}

// DoctorDecisionRequest names the applicant by user id
type DoctorDecisionRequest struct {
	ID string `json:"id" validate:"required,objectid"`
}

type BookAppointmentRequest struct {
	DoctorID       string  `json:"doctorId" validate:"required,objectid"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string  `json:"time" validate:"notblank"`
	Age            flexInt `json:"age" validate:"min=0"`
	BloodGroup     string  `json:"bloodGroup"`
	Gender         string  `json:"gender"`
	Number         string  `json:"number"`
	FamilyDiseases string  `json:"familyDiseases"`
}

type CompleteAppointmentRequest struct {
	AppointmentID string `json:"appointid" validate:"required,objectid"`
	DoctorID      string `json:"doctorId" validate:"omitempty,objectid"`
	DoctorName    string `json:"doctorname"`
}
