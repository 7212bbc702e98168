package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Doctor is a doctor application; IsDoctor flips to true once an admin approves it.
// There is at most one Doctor per UserID.
type Doctor struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Specialization string             `bson:"specialization" json:"specialization"`
	Experience     int                `bson:"experience" json:"experience"` // in years
	Fees           int                `bson:"fees" json:"fees"`
	IsDoctor       bool               `bson:"isDoctor" json:"isDoctor"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DoctorProfile is a Doctor with its user populated under "userId"
type DoctorProfile struct {
	Doctor
	User *User `json:"userId"`
}
