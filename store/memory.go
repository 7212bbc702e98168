package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryDB keeps every collection in maps guarded by one RWMutex.
// It enforces the same unique keys as the MongoDB indexes.
type memoryDB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users         map[primitive.ObjectID]models.User
	doctors       map[primitive.ObjectID]models.Doctor
	appointments  map[primitive.ObjectID]models.Appointment
	notifications map[primitive.ObjectID]models.Notification
}

// NewMemoryStore returns a Store that lives in process memory
func NewMemoryStore() *Store {
	db := &memoryDB{
		users:         make(map[primitive.ObjectID]models.User),
		doctors:       make(map[primitive.ObjectID]models.Doctor),
		appointments:  make(map[primitive.ObjectID]models.Appointment),
		notifications: make(map[primitive.ObjectID]models.Notification),
	}
	return &Store{
		Users:         &memoryUsers{db},
		Doctors:       &memoryDoctors{db},
		Appointments:  &memoryAppointments{db},
		Notifications: &memoryNotifications{db},
		Tx:            db,
	}
}

type memorySnapshot struct {
	users         map[primitive.ObjectID]models.User
	doctors       map[primitive.ObjectID]models.Doctor
	appointments  map[primitive.ObjectID]models.Appointment
	notifications map[primitive.ObjectID]models.Notification
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type txKey struct{}

// WithTransaction serializes transactions and rolls back every write of fn when it fails.
// Writes outside a transaction wait for it to finish, so a rollback only undoes fn.
func (db *memoryDB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == db {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snap := memorySnapshot{
		users:         cloneMap(db.users),
		doctors:       cloneMap(db.doctors),
		appointments:  cloneMap(db.appointments),
		notifications: cloneMap(db.notifications),
	}
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.mu.Lock()
		db.users = snap.users
		db.doctors = snap.doctors
		db.appointments = snap.appointments
		db.notifications = snap.notifications
		db.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite takes the write lock and returns its release. Callers outside a
// transaction also hold txMu for the duration of the write.
func (db *memoryDB) lockWrite(ctx context.Context) func() {
	if ctx.Value(txKey{}) == db {
		db.mu.Lock()
		return db.mu.Unlock
	}
	db.txMu.Lock()
	db.mu.Lock()
	return func() {
		db.mu.Unlock()
		db.txMu.Unlock()
	}
}

// newer orders records newest first, ties broken by id
func newer(aCreated, bCreated time.Time, aID, bID primitive.ObjectID) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID.Hex() > bID.Hex()
}

// ---- users ----

type memoryUsers struct{ db *memoryDB }

func (r *memoryUsers) Insert(ctx context.Context, user *models.User) error {
	defer r.db.lockWrite(ctx)()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.db.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	result := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (r *memoryUsers) List(ctx context.Context, excludeID primitive.ObjectID) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := []models.User{}
	for id, u := range r.db.users {
		if id != excludeID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return newer(users[i].CreatedAt, users[j].CreatedAt, users[i].ID, users[j].ID)
	})
	return users, nil
}

func (r *memoryUsers) Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error) {
	defer r.db.lockWrite(ctx)()

	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Email != nil && *update.Email != u.Email {
		for otherID, other := range r.db.users {
			if otherID != id && other.Email == *update.Email {
				return nil, ErrDuplicate
			}
		}
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&u.Firstname, update.Firstname)
	apply(&u.Lastname, update.Lastname)
	apply(&u.Email, update.Email)
	apply(&u.Password, update.Password)
	apply(&u.Gender, update.Gender)
	apply(&u.Mobile, update.Mobile)
	apply(&u.Address, update.Address)
	apply(&u.Pic, update.Pic)
	if update.Age != nil {
		u.Age = *update.Age
	}
	u.UpdatedAt = time.Now()

	r.db.users[id] = u
	return &u, nil
}

func (r *memoryUsers) SetDoctorStatus(ctx context.Context, id primitive.ObjectID, isDoctor bool, status string) error {
	defer r.db.lockWrite(ctx)()

	u, ok := r.db.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsDoctor = isDoctor
	if status != "" {
		u.Status = status
	}
	u.UpdatedAt = time.Now()
	r.db.users[id] = u
	return nil
}

func (r *memoryUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.db.lockWrite(ctx)()

	if _, ok := r.db.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.users, id)
	return nil
}

// ---- doctors ----

type memoryDoctors struct{ db *memoryDB }

func (r *memoryDoctors) Insert(ctx context.Context, doctor *models.Doctor) error {
	defer r.db.lockWrite(ctx)()

	for _, d := range r.db.doctors {
		if d.UserID == doctor.UserID {
			return ErrDuplicate
		}
	}
	if doctor.ID.IsZero() {
		doctor.ID = primitive.NewObjectID()
	}
	r.db.doctors[doctor.ID] = *doctor
	return nil
}

// byUser must be called with the lock held
func (r *memoryDoctors) byUser(userID primitive.ObjectID) (models.Doctor, bool) {
	for _, d := range r.db.doctors {
		if d.UserID == userID {
			return d, true
		}
	}
	return models.Doctor{}, false
}

func (r *memoryDoctors) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	d, ok := r.byUser(userID)
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *memoryDoctors) UpdateProfile(ctx context.Context, userID primitive.ObjectID, specialization string, experience, fees int) (*models.Doctor, error) {
	defer r.db.lockWrite(ctx)()

	d, ok := r.byUser(userID)
	if !ok {
		return nil, ErrNotFound
	}
	d.Specialization = specialization
	d.Experience = experience
	d.Fees = fees
	d.UpdatedAt = time.Now()
	r.db.doctors[d.ID] = d
	return &d, nil
}

func (r *memoryDoctors) SetApproved(ctx context.Context, userID primitive.ObjectID, approved bool) error {
	defer r.db.lockWrite(ctx)()

	d, ok := r.byUser(userID)
	if !ok {
		return ErrNotFound
	}
	d.IsDoctor = approved
	d.UpdatedAt = time.Now()
	r.db.doctors[d.ID] = d
	return nil
}

func (r *memoryDoctors) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	defer r.db.lockWrite(ctx)()

	d, ok := r.byUser(userID)
	if !ok {
		return ErrNotFound
	}
	delete(r.db.doctors, d.ID)
	return nil
}

func (r *memoryDoctors) List(ctx context.Context, filter DoctorFilter) ([]models.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	doctors := []models.Doctor{}
	for _, d := range r.db.doctors {
		if d.IsDoctor != filter.Approved {
			continue
		}
		if !filter.ExcludeUserID.IsZero() && d.UserID == filter.ExcludeUserID {
			continue
		}
		doctors = append(doctors, d)
	}
	sort.Slice(doctors, func(i, j int) bool {
		return newer(doctors[i].CreatedAt, doctors[j].CreatedAt, doctors[i].ID, doctors[j].ID)
	})
	return doctors, nil
}

// ---- appointments ----

type memoryAppointments struct{ db *memoryDB }

func (r *memoryAppointments) Insert(ctx context.Context, appointment *models.Appointment) error {
	defer r.db.lockWrite(ctx)()

	if appointment.ID.IsZero() {
		appointment.ID = primitive.NewObjectID()
	}
	r.db.appointments[appointment.ID] = *appointment
	return nil
}

func (r *memoryAppointments) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryAppointments) SetStatus(ctx context.Context, id primitive.ObjectID, status models.AppointmentStatus) error {
	defer r.db.lockWrite(ctx)()

	a, ok := r.db.appointments[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	r.db.appointments[id] = a
	return nil
}

func (f AppointmentFilter) matches(a models.Appointment) bool {
	if !f.UserID.IsZero() && a.UserID != f.UserID {
		return false
	}
	if !f.DoctorID.IsZero() && a.DoctorID != f.DoctorID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Status == "" && f.ExcludeStatus != "" && a.Status == f.ExcludeStatus {
		return false
	}
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	return true
}

func (r *memoryAppointments) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	appointments := []models.Appointment{}
	for _, a := range r.db.appointments {
		if filter.matches(a) {
			appointments = append(appointments, a)
		}
	}
	sort.Slice(appointments, func(i, j int) bool {
		return newer(appointments[i].CreatedAt, appointments[j].CreatedAt, appointments[i].ID, appointments[j].ID)
	})
	return appointments, nil
}

func (r *memoryAppointments) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	defer r.db.lockWrite(ctx)()

	var deleted int64
	for id, a := range r.db.appointments {
		if a.UserID == userID {
			delete(r.db.appointments, id)
			deleted++
		}
	}
	return deleted, nil
}

// ---- notifications ----

type memoryNotifications struct{ db *memoryDB }

func (r *memoryNotifications) Insert(ctx context.Context, notification *models.Notification) error {
	defer r.db.lockWrite(ctx)()

	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	r.db.notifications[notification.ID] = *notification
	return nil
}

func (r *memoryNotifications) ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	notifications := []models.Notification{}
	for _, n := range r.db.notifications {
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return newer(notifications[i].CreatedAt, notifications[j].CreatedAt, notifications[i].ID, notifications[j].ID)
	})
	return notifications, nil
}
