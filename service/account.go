package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/store"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 5

type RegisterInput struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
	Role      models.Role
	Age       int
	Gender    string
	Mobile    string
	Address   string
	Pic       string
}

type LoginInput struct {
	Email    string
	Password string
	Role     models.Role
}

// ProfileInput holds optional profile changes; nil fields are left alone
type ProfileInput struct {
	Firstname *string
	Lastname  *string
	Email     *string
	Password  *string
	Age       *int
	Gender    *string
	Mobile    *string
	Address   *string
}

type ChangePasswordInput struct {
	CurrentPassword    string
	NewPassword        string
	ConfirmNewPassword string
}

type AccountService struct {
	deps    Deps
	doctors *DoctorService
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.deps.HashCost)
	if err != nil {
		return "", Internal("Error hashing password", err)
	}
	return string(hashed), nil
}

// Register creates a user; the role defaults to Patient
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, false)
}

// CreateAdmin registers a user with isAdmin set; there is no API for it
func (s *AccountService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *AccountService) create(ctx context.Context, in RegisterInput, admin bool) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if strings.TrimSpace(in.Firstname) == "" || strings.TrimSpace(in.Lastname) == "" {
		return nil, Validation("Firstname and lastname are required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, Validation("A valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, Validation(fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}
	if in.Role == "" {
		in.Role = models.RolePatient
	}
	if !in.Role.Valid() {
		return nil, Validation("Role must be Patient or Doctor")
	}

	_, err := s.deps.Store.Users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, Conflict("Email already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, Internal("Unable to register user", err)
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.deps.Now()
	user := &models.User{
		Firstname: strings.TrimSpace(in.Firstname),
		Lastname:  strings.TrimSpace(in.Lastname),
		Email:     in.Email,
		Password:  hashed,
		IsAdmin:   admin,
		Age:       in.Age,
		Gender:    in.Gender,
		Mobile:    in.Mobile,
		Address:   in.Address,
		Role:      in.Role,
		Pic:       in.Pic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deps.Store.Users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("Email already exists")
		}
		return nil, Internal("Unable to register user", err)
	}
	return user, nil
}

// Login verifies the credentials and the requested role and issues a session token
func (s *AccountService) Login(ctx context.Context, in LoginInput) (string, error) {
	user, err := s.deps.Store.Users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Validation("Incorrect credentials")
		}
		return "", Internal("Unable to login user", err)
	}
	if in.Role != "" && user.Role != in.Role {
		return "", NotFound("Role does not exist")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", Validation("Incorrect credentials")
	}

	token, err := s.deps.Tokens.GenerateToken(user.ID.Hex(), user.IsAdmin, string(user.Role))
	if err != nil {
		return "", Internal("Unable to login user", err)
	}
	return token, nil
}

// Get returns a user with a readable picture URL
func (s *AccountService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.deps.Store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found", "Unable to get user")
	}
	user.Pic = utils.PresignImageURL(ctx, s.deps.Pictures, user.Pic)
	return user, nil
}

// ListExcept returns all users but excludeID
func (s *AccountService) ListExcept(ctx context.Context, excludeID primitive.ObjectID) ([]models.User, error) {
	users, err := s.deps.Store.Users.List(ctx, excludeID)
	if err != nil {
		return nil, Internal("Unable to get all users", err)
	}
	for i := range users {
		users[i].Pic = utils.PresignImageURL(ctx, s.deps.Pictures, users[i].Pic)
	}
	return users, nil
}

// UpdateProfile changes the caller's own profile. Role and admin flags cannot be changed here.
func (s *AccountService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*models.User, error) {
	update := store.UserUpdate{
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Age:       in.Age,
		Gender:    in.Gender,
		Mobile:    in.Mobile,
		Address:   in.Address,
	}
	for _, name := range []*string{in.Firstname, in.Lastname} {
		if name != nil && strings.TrimSpace(*name) == "" {
			return nil, Validation("Firstname and lastname cannot be blank")
		}
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, Validation("A valid email is required")
		}
		update.Email = &email
	}
	if in.Age != nil && *in.Age < 0 {
		return nil, Validation("Age cannot be negative")
	}
	// an empty password means "keep the current one"
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) < minPasswordLength {
			return nil, Validation(fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
		}
		hashed, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		update.Password = &hashed
	}

	user, err := s.deps.Store.Users.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("Email already exists")
		}
		return nil, storeError(err, "User not found", "Unable to update user")
	}
	if user.IsDoctor {
		s.doctors.invalidateCache(ctx)
	}
	user.Pic = utils.PresignImageURL(ctx, s.deps.Pictures, user.Pic)
	return user, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, id primitive.ObjectID, in ChangePasswordInput) error {
	if in.NewPassword != in.ConfirmNewPassword {
		return Validation("Passwords do not match")
	}
	if len(in.NewPassword) < minPasswordLength {
		return Validation(fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}

	user, err := s.deps.Store.Users.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "User not found", "Internal Server Error")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
		return Validation("Incorrect current password")
	}

	hashed, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	if _, err := s.deps.Store.Users.Update(ctx, id, store.UserUpdate{Password: &hashed}); err != nil {
		return storeError(err, "User not found", "Internal Server Error")
	}
	return nil
}

// Delete removes the user with their Doctor record and the appointments they
// booked as a patient. Appointments where they are the doctor stay.
func (s *AccountService) Delete(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.deps.Store.Users.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "User not found", "Unable to delete user")
	}

	err = s.deps.Store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.deps.Store.Users.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.deps.Store.Doctors.DeleteByUserID(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		_, err := s.deps.Store.Appointments.DeleteByUserID(ctx, id)
		return err
	})
	if err != nil {
		return storeError(err, "User not found", "Unable to delete user")
	}
	if user.IsDoctor {
		s.doctors.invalidateCache(ctx)
	}
	return nil
}

// ForgotPassword emails a reset link valid for the reset token lifetime
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.deps.Store.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return storeError(err, "User not found", "Internal Server Error")
	}

	token, err := s.deps.Tokens.GenerateResetToken(user.ID.Hex())
	if err != nil {
		return Internal("Internal Server Error", err)
	}
	link := fmt.Sprintf("%s/resetpassword/%s/%s", strings.TrimRight(s.deps.ClientURL, "/"), user.ID.Hex(), token)
	html := fmt.Sprintf(`<p>Hello %s,</p><p>Use the link below to reset your password.</p><p><a href="%s">Reset password</a></p>`, user.Firstname, link)

	if err := s.deps.Mailer.SendEmail(ctx, user.FullName(), user.Email, "Reset Password Link", link, html); err != nil {
		return Internal("Error sending email", err)
	}
	return nil
}

// ResetPassword sets a new password when token was issued for id
func (s *AccountService) ResetPassword(ctx context.Context, id primitive.ObjectID, token, password string) error {
	tokenUserID, err := s.deps.Tokens.ValidateResetToken(token)
	if err != nil || tokenUserID != id.Hex() {
		return Validation("Invalid or expired token")
	}
	if len(password) < minPasswordLength {
		return Validation(fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}

	hashed, err := s.hash(password)
	if err != nil {
		return err
	}
	if _, err := s.deps.Store.Users.Update(ctx, id, store.UserUpdate{Password: &hashed}); err != nil {
		return storeError(err, "User not found", "Failed to update password")
	}
	return nil
}

// UploadPicture stores an image and points the user's pic at it
func (s *AccountService) UploadPicture(ctx context.Context, id primitive.ObjectID, file io.Reader, filename, contentType string) (*models.User, error) {
	if s.deps.Pictures == nil {
		return nil, Internal("Picture storage is not configured", errors.New("no picture storage"))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, Validation("Only image uploads are allowed")
	}
	if _, err := s.deps.Store.Users.FindByID(ctx, id); err != nil {
		return nil, storeError(err, "User not found", "Unable to upload picture")
	}

	objectKey := fmt.Sprintf("profile_pics/%s/%s%s", id.Hex(), uuid.New().String(), strings.ToLower(filepath.Ext(filename)))
	key, err := s.deps.Pictures.Upload(ctx, file, objectKey, contentType)
	if err != nil {
		return nil, Internal("Unable to upload picture", err)
	}

	user, err := s.deps.Store.Users.Update(ctx, id, store.UserUpdate{Pic: &key})
	if err != nil {
		return nil, storeError(err, "User not found", "Unable to upload picture")
	}
	if user.IsDoctor {
		s.doctors.invalidateCache(ctx)
	}
	user.Pic = utils.PresignImageURL(ctx, s.deps.Pictures, user.Pic)
	return user, nil
}
