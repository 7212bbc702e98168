package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "Pending"
	AppointmentCompleted AppointmentStatus = "Completed"
)

// DateLayout is the format of Appointment.Date
const DateLayout = "2006-01-02"

// Appointment is a slot booked by a patient (UserID) with a doctor (DoctorID, the doctor's user id).
// Patient details are a snapshot taken at booking time.
type Appointment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	DoctorID       primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	Date           string             `bson:"date" json:"date"`
	Time           string             `bson:"time" json:"time"`
	Age            int                `bson:"age,omitempty" json:"age,omitempty"`
	BloodGroup     string             `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	Gender         string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Number         string             `bson:"number,omitempty" json:"number,omitempty"`
	FamilyDiseases string             `bson:"familyDiseases,omitempty" json:"familyDiseases,omitempty"`
	Status         AppointmentStatus  `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AppointmentView is an Appointment with patient and doctor users populated
type AppointmentView struct {
	Appointment
	User   *User `json:"userId"`
	Doctor *User `json:"doctorId"`
}
