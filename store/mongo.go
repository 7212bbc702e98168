package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raushankrgupta/doctor-appointment/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection         = "users"
	doctorsCollection       = "doctors"
	appointmentsCollection  = "appointments"
	notificationsCollection = "notifications"
)

// MongoOptions tunes the MongoDB store
type MongoOptions struct {
	Transactions bool          // requires a replica set
	Timeout      time.Duration // per operation, 0 means 10s
}

// NewMongoStore builds a Store over the named database
func NewMongoStore(client *mongo.Client, dbName string, opts MongoOptions) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	db := client.Database(dbName)
	return &Store{
		Users:         &mongoUsers{coll: db.Collection(usersCollection), timeout: opts.Timeout},
		Doctors:       &mongoDoctors{coll: db.Collection(doctorsCollection), timeout: opts.Timeout},
		Appointments:  &mongoAppointments{coll: db.Collection(appointmentsCollection), timeout: opts.Timeout},
		Notifications: &mongoNotifications{coll: db.Collection(notificationsCollection), timeout: opts.Timeout},
		Tx:            &mongoTransactor{client: client, enabled: opts.Transactions},
	}
}

// EnsureIndexes creates the unique and lookup indexes the store relies on
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		doctorsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isDoctor", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		appointmentsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type mongoTransactor struct {
	client  *mongo.Client
	enabled bool
}

func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// ---- users ----

type mongoUsers struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *mongoUsers) Insert(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, user)
	return translate(err)
}

func (r *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *mongoUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	result := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate(err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *mongoUsers) List(ctx context.Context, excludeID primitive.ObjectID) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translate(err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *mongoUsers) Update(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": userUpdateDoc(update, time.Now())}, opts).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// userUpdateDoc builds the $set document for the non-nil fields of u
func userUpdateDoc(u UserUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	strs := map[string]*string{
		"firstname": u.Firstname,
		"lastname":  u.Lastname,
		"email":     u.Email,
		"password":  u.Password,
		"gender":    u.Gender,
		"mobile":    u.Mobile,
		"address":   u.Address,
		"pic":       u.Pic,
	}
	for field, v := range strs {
		if v != nil {
			set[field] = *v
		}
	}
	if u.Age != nil {
		set["age"] = *u.Age
	}
	return set
}

func (r *mongoUsers) SetDoctorStatus(ctx context.Context, id primitive.ObjectID, isDoctor bool, status string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{"isDoctor": isDoctor, "updatedAt": time.Now()}
	if status != "" {
		set["status"] = status
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- doctors ----

type mongoDoctors struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *mongoDoctors) Insert(ctx context.Context, doctor *models.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if doctor.ID.IsZero() {
		doctor.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, doctor)
	return translate(err)
}

func (r *mongoDoctors) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doctor models.Doctor
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doctor); err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (r *mongoDoctors) UpdateProfile(ctx context.Context, userID primitive.ObjectID, specialization string, experience, fees int) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"specialization": specialization,
		"experience":     experience,
		"fees":           fees,
		"updatedAt":      time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doctor models.Doctor
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&doctor); err != nil {
		return nil, translate(err)
	}
	return &doctor, nil
}

func (r *mongoDoctors) SetApproved(ctx context.Context, userID primitive.ObjectID, approved bool) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"isDoctor": approved, "updatedAt": time.Now()}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoDoctors) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoDoctors) List(ctx context.Context, filter DoctorFilter) ([]models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, doctorQuery(filter), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translate(err)
	}
	doctors := []models.Doctor{}
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func doctorQuery(f DoctorFilter) bson.M {
	query := bson.M{"isDoctor": f.Approved}
	if !f.ExcludeUserID.IsZero() {
		query["userId"] = bson.M{"$ne": f.ExcludeUserID}
	}
	return query
}

// ---- appointments ----

type mongoAppointments struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *mongoAppointments) Insert(ctx context.Context, appointment *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if appointment.ID.IsZero() {
		appointment.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, appointment)
	return translate(err)
}

func (r *mongoAppointments) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var appointment models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment); err != nil {
		return nil, translate(err)
	}
	return &appointment, nil
}

func (r *mongoAppointments) SetStatus(ctx context.Context, id primitive.ObjectID, status models.AppointmentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoAppointments) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, appointmentQuery(filter), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translate(err)
	}
	appointments := []models.Appointment{}
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func appointmentQuery(f AppointmentFilter) bson.M {
	query := bson.M{}
	if !f.UserID.IsZero() {
		query["userId"] = f.UserID
	}
	if !f.DoctorID.IsZero() {
		query["doctorId"] = f.DoctorID
	}
	switch {
	case f.Status != "":
		query["status"] = f.Status
	case f.ExcludeStatus != "":
		query["status"] = bson.M{"$ne": f.ExcludeStatus}
	}
	if f.Date != "" {
		query["date"] = f.Date
	}
	return query
}

func (r *mongoAppointments) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

// ---- notifications ----

type mongoNotifications struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (r *mongoNotifications) Insert(ctx context.Context, notification *models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, notification)
	return translate(err)
}

func (r *mongoNotifications) ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, translate(err)
	}
	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}
