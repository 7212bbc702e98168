package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the account type chosen at registration
type Role string

const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// Doctor application status mirrored on the user record
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// User represents a registered user
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Firstname string             `bson:"firstname" json:"firstname"`
	Lastname  string             `bson:"lastname" json:"lastname"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // Password is not returned in JSON
	IsAdmin   bool               `bson:"isAdmin" json:"isAdmin"`
	IsDoctor  bool               `bson:"isDoctor" json:"isDoctor"`
	Age       int                `bson:"age,omitempty" json:"age,omitempty"`
	Gender    string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Mobile    string             `bson:"mobile,omitempty" json:"mobile,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Role      Role               `bson:"role" json:"role"`
	Status    string             `bson:"status,omitempty" json:"status,omitempty"` // pending, accepted, rejected
	Pic       string             `bson:"pic,omitempty" json:"pic,omitempty"`       // object key or absolute URL
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name
func (u User) FullName() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}
