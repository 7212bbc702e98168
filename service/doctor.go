package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"github.com/raushankrgupta/doctor-appointment/store"
	"github.com/raushankrgupta/doctor-appointment/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgApplicationAccepted = "Congratulations, Your application has been accepted."
	msgApplicationRejected = "Sorry, Your application has been rejected."
)

// DoctorInput carries the editable fields of a doctor application
type DoctorInput struct {
	Specialization string
	Experience     int
	Fees           int
}

func (in DoctorInput) validate() error {
	if strings.TrimSpace(in.Specialization) == "" {
		return Validation("Specialization is required")
	}
	if in.Experience < 0 {
		return Validation("Experience cannot be negative")
	}
	if in.Fees < 0 {
		return Validation("Fees cannot be negative")
	}
	return nil
}

type DoctorService struct {
	store         *store.Store
	cache         Cache
	pictures      PictureStorage
	notifications *NotificationService
	now           func() time.Time
}

// storeError maps store sentinels onto service errors, passing *Error through
func storeError(err error, notFoundMsg, internalMsg string) error {
	var se *Error
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, store.ErrNotFound):
		return NotFound(notFoundMsg)
	}
	return Internal(internalMsg, err)
}

// SubmitApplication creates a pending Doctor record for the caller
func (s *DoctorService) SubmitApplication(ctx context.Context, userID primitive.ObjectID, in DoctorInput) (*models.Doctor, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Users.FindByID(ctx, userID); err != nil {
		return nil, storeError(err, "User not found", "Unable to submit application")
	}

	_, err := s.store.Doctors.FindByUserID(ctx, userID)
	if err == nil {
		return nil, Conflict("You have already applied. Use 'Update Application' instead.")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, Internal("Unable to submit application", err)
	}

	now := s.now()
	doctor := &models.Doctor{
		UserID:         userID,
		Specialization: strings.TrimSpace(in.Specialization),
		Experience:     in.Experience,
		Fees:           in.Fees,
		IsDoctor:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Doctors.Insert(ctx, doctor); err != nil {
		// lost a race with a concurrent submission
		if errors.Is(err, store.ErrDuplicate) {
			return nil, Conflict("You have already applied. Use 'Update Application' instead.")
		}
		return nil, Internal("Unable to submit application", err)
	}
	return doctor, nil
}

// UpdateApplication edits the caller's Doctor record in place; isDoctor is untouched
func (s *DoctorService) UpdateApplication(ctx context.Context, userID primitive.ObjectID, in DoctorInput) (*models.DoctorProfile, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	doctor, err := s.store.Doctors.UpdateProfile(ctx, userID, strings.TrimSpace(in.Specialization), in.Experience, in.Fees)
	if err != nil {
		return nil, storeError(err, "Doctor profile not found", "Unable to update doctor profile")
	}
	if doctor.IsDoctor {
		s.invalidateCache(ctx)
	}

	profiles, err := s.populate(ctx, []models.Doctor{*doctor})
	if err != nil {
		return nil, err
	}
	return &s.withPictureURLs(ctx, profiles)[0], nil
}

// GetOwnProfile returns the caller's Doctor record with its user
func (s *DoctorService) GetOwnProfile(ctx context.Context, userID primitive.ObjectID) (*models.DoctorProfile, error) {
	doctor, err := s.store.Doctors.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Doctor profile not found", "Unable to fetch doctor profile")
	}
	profiles, err := s.populate(ctx, []models.Doctor{*doctor})
	if err != nil {
		return nil, err
	}
	return &s.withPictureURLs(ctx, profiles)[0], nil
}

// ListDoctors returns approved doctors, optionally without excludeUserID and
// filtered by a case-insensitive match on name or specialization.
func (s *DoctorService) ListDoctors(ctx context.Context, excludeUserID primitive.ObjectID, search string) ([]models.DoctorProfile, error) {
	search = strings.ToLower(strings.TrimSpace(search))
	key := "approved:" + excludeUserID.Hex() + ":" + search

	if cached, ok := s.cacheGet(ctx, key); ok {
		return s.withPictureURLs(ctx, cached), nil
	}

	doctors, err := s.store.Doctors.List(ctx, store.DoctorFilter{Approved: true, ExcludeUserID: excludeUserID})
	if err != nil {
		return nil, Internal("Unable to get doctors", err)
	}
	profiles, err := s.populate(ctx, doctors)
	if err != nil {
		return nil, err
	}
	if search != "" {
		filtered := make([]models.DoctorProfile, 0, len(profiles))
		for _, p := range profiles {
			if matchesSearch(p, search) {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}

	// the cache keeps object keys since presigned URLs expire
	s.cacheSet(ctx, key, profiles)
	return s.withPictureURLs(ctx, profiles), nil
}

// matchesSearch expects term to be lower case
func matchesSearch(p models.DoctorProfile, term string) bool {
	fields := []string{p.Specialization}
	if p.User != nil {
		fields = append(fields, p.User.Firstname, p.User.Lastname, p.User.FullName())
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// ListApplications returns pending applications, newest first
func (s *DoctorService) ListApplications(ctx context.Context) ([]models.DoctorProfile, error) {
	return s.ListNotDoctors(ctx, primitive.NilObjectID)
}

// ListNotDoctors is ListApplications without excludeUserID's own application
func (s *DoctorService) ListNotDoctors(ctx context.Context, excludeUserID primitive.ObjectID) ([]models.DoctorProfile, error) {
	doctors, err := s.store.Doctors.List(ctx, store.DoctorFilter{Approved: false, ExcludeUserID: excludeUserID})
	if err != nil {
		return nil, Internal("Unable to get applications", err)
	}
	profiles, err := s.populate(ctx, doctors)
	if err != nil {
		return nil, err
	}
	return s.withPictureURLs(ctx, profiles), nil
}

// Approve marks the user and the Doctor record as approved and notifies the user.
// Repeated calls notify again.
func (s *DoctorService) Approve(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.store.Users.FindByID(ctx, userID); err != nil {
		return storeError(err, "User not found", "Error while approving application")
	}
	if _, err := s.store.Doctors.FindByUserID(ctx, userID); err != nil {
		return storeError(err, "Doctor record not found", "Error while approving application")
	}

	var notification models.Notification
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Users.SetDoctorStatus(ctx, userID, true, models.StatusAccepted); err != nil {
			return err
		}
		if err := s.store.Doctors.SetApproved(ctx, userID, true); err != nil {
			return err
		}
		n, err := s.notifications.Record(ctx, userID, msgApplicationAccepted, models.CategoryApproved)
		notification = n
		return err
	})
	if err != nil {
		return storeError(err, "Doctor record not found", "Error while approving application")
	}

	s.notifications.Publish(notification)
	s.invalidateCache(ctx)
	return nil
}

// Reject marks the user as rejected, deletes the Doctor record and notifies the user
func (s *DoctorService) Reject(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.store.Users.FindByID(ctx, userID); err != nil {
		return storeError(err, "User not found", "Error while rejecting application")
	}

	var notification models.Notification
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Users.SetDoctorStatus(ctx, userID, false, models.StatusRejected); err != nil {
			return err
		}
		if err := s.store.Doctors.DeleteByUserID(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		n, err := s.notifications.Record(ctx, userID, msgApplicationRejected, models.CategoryRejected)
		notification = n
		return err
	})
	if err != nil {
		return storeError(err, "User not found", "Error while rejecting application")
	}

	s.notifications.Publish(notification)
	s.invalidateCache(ctx)
	return nil
}

// DeleteDoctor revokes the doctor role, deletes the Doctor record and the
// appointments the user booked as a patient. Appointments where the user is
// the doctor are left in place.
func (s *DoctorService) DeleteDoctor(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.store.Users.FindByID(ctx, userID); err != nil {
		return storeError(err, "User not found", "Unable to delete doctor")
	}

	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Users.SetDoctorStatus(ctx, userID, false, ""); err != nil {
			return err
		}
		if err := s.store.Doctors.DeleteByUserID(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		_, err := s.store.Appointments.DeleteByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return storeError(err, "User not found", "Unable to delete doctor")
	}

	s.invalidateCache(ctx)
	return nil
}

// populate attaches users to doctors; a missing user is left nil
func (s *DoctorService) populate(ctx context.Context, doctors []models.Doctor) ([]models.DoctorProfile, error) {
	ids := make([]primitive.ObjectID, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.UserID)
	}
	users, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, Internal("Unable to load doctor users", err)
	}

	profiles := make([]models.DoctorProfile, 0, len(doctors))
	for _, d := range doctors {
		p := models.DoctorProfile{Doctor: d}
		if u, ok := users[d.UserID]; ok {
			p.User = &u
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// withPictureURLs swaps picture keys for presigned URLs without touching the
// users shared with profiles
func (s *DoctorService) withPictureURLs(ctx context.Context, profiles []models.DoctorProfile) []models.DoctorProfile {
	out := make([]models.DoctorProfile, len(profiles))
	for i, p := range profiles {
		p.User = withPictureURL(ctx, s.pictures, p.User)
		out[i] = p
	}
	return out
}

// cachedProfile keeps Doctor.UserID, which DoctorProfile's JSON form hides
type cachedProfile struct {
	Doctor models.Doctor `json:"doctor"`
	User   *models.User  `json:"user"`
}

func (s *DoctorService) cacheGet(ctx context.Context, key string) ([]models.DoctorProfile, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		utils.Logger.Warn().Err(err).Msg("doctor cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var cached []cachedProfile
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	profiles := make([]models.DoctorProfile, 0, len(cached))
	for _, c := range cached {
		profiles = append(profiles, models.DoctorProfile{Doctor: c.Doctor, User: c.User})
	}
	return profiles, true
}

func (s *DoctorService) cacheSet(ctx context.Context, key string, profiles []models.DoctorProfile) {
	if s.cache == nil {
		return
	}
	cached := make([]cachedProfile, 0, len(profiles))
	for _, p := range profiles {
		cached = append(cached, cachedProfile{Doctor: p.Doctor, User: p.User})
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw); err != nil {
		utils.Logger.Warn().Err(err).Msg("doctor cache write failed")
	}
}

func (s *DoctorService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteAll(ctx); err != nil {
		utils.Logger.Warn().Err(err).Msg("doctor cache invalidation failed")
	}
}
