package model

import "time"

// Patient is a registered patient. CreditScore gates booking and bidding
// (below 60 blocks participation) and weights auction ranking.
type Patient struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	IDCard        string    `json:"id_card" bson:"id_card" validate:"required,min=2,max=50"`
	Name          string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Gender        string    `json:"gender" bson:"gender" validate:"omitempty,oneof=Male Female Other"`
	Age           int       `json:"age" bson:"age" validate:"omitempty,min=0,max=150"`
	Address       string    `json:"address" bson:"address" validate:"omitempty,max=200"`
	Contact       string    `json:"contact" bson:"contact" validate:"omitempty,max=50"`
	MedicalRecord string    `json:"medical_record" bson:"medical_record" validate:"omitempty,max=2000"`
	CreditScore   int       `json:"credit_score" bson:"credit_score" validate:"min=0"`
	Username      string    `json:"username" bson:"username" validate:"required,min=2,max=50"`
	Password      string    `json:"password,omitempty" bson:"password" validate:"omitempty,min=1"`
	Status        string    `json:"status" bson:"status" validate:"omitempty,oneof=PENDING APPROVED"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type Doctor struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	IDCard     string    `json:"id_card" bson:"id_card" validate:"required,min=2,max=50"`
	Name       string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Department string    `json:"department" bson:"department" validate:"required,min=2,max=100"`
	Title      string    `json:"title" bson:"title" validate:"omitempty,max=100"`
	Hospital   string    `json:"hospital" bson:"hospital" validate:"omitempty,max=100"`
	Specialty  string    `json:"specialty" bson:"specialty" validate:"omitempty,max=100"`
	Gender     string    `json:"gender" bson:"gender" validate:"omitempty,oneof=Male Female Other"`
	Age        int       `json:"age" bson:"age" validate:"omitempty,min=0,max=150"`
	Address    string    `json:"address" bson:"address" validate:"omitempty,max=200"`
	Contact    string    `json:"contact" bson:"contact" validate:"omitempty,max=50"`
	Username   string    `json:"username" bson:"username" validate:"required,min=2,max=50"`
	Password   string    `json:"password,omitempty" bson:"password" validate:"omitempty,min=1"`
	Status     string    `json:"status" bson:"status" validate:"omitempty,oneof=PENDING APPROVED"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type Admin struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	IDCard     string    `json:"id_card" bson:"id_card" validate:"required,min=2,max=50"`
	Name       string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Address    string    `json:"address" bson:"address" validate:"omitempty,max=200"`
	Contact    string    `json:"contact" bson:"contact" validate:"omitempty,max=50"`
	Username   string    `json:"username" bson:"username" validate:"required,min=2,max=50"`
	Password   string    `json:"password,omitempty" bson:"password" validate:"omitempty,min=1"`
	Status     string    `json:"status" bson:"status" validate:"omitempty,oneof=PENDING APPROVED"`
	FirstLogin bool      `json:"first_login" bson:"first_login"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Patch structs carry partial updates with an explicit per-role field
// allow-list. Nil fields are left untouched.

type PatientPatch struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	MedicalRecord *string `json:"medical_record,omitempty" validate:"omitempty,max=2000"`
	Age           *int    `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Gender        *string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	Address       *string `json:"address,omitempty" validate:"omitempty,max=200"`
	Contact       *string `json:"contact,omitempty" validate:"omitempty,max=50"`
	Password      *string `json:"password,omitempty" validate:"omitempty,min=1"`
}

type DoctorPatch struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Department *string `json:"department,omitempty" validate:"omitempty,min=2,max=100"`
	Title      *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Hospital   *string `json:"hospital,omitempty" validate:"omitempty,max=100"`
	Specialty  *string `json:"specialty,omitempty" validate:"omitempty,max=100"`
	Age        *int    `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Gender     *string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=200"`
	Contact    *string `json:"contact,omitempty" validate:"omitempty,max=50"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=1"`
}

type AdminPatch struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=200"`
	Contact  *string `json:"contact,omitempty" validate:"omitempty,max=50"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=1"`
}
