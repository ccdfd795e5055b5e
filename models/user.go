package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	LastName string             `bson:"lastName" json:"lastName"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	Role     Role               `bson:"role" json:"role"`
	Status   UserStatus         `bson:"status" json:"status"`

	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Position   string `bson:"position,omitempty" json:"position,omitempty"`
	Avatar     string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`

	AssignedTasks   []primitive.ObjectID `bson:"assignedTasks" json:"assignedTasks"`
	CreatedProjects []primitive.ObjectID `bson:"createdProjects" json:"createdProjects"`

	VerificationCode   string    `bson:"verificationCode,omitempty" json:"-"`
	VerificationExpiry time.Time `bson:"verificationExpiry,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the account may authenticate and receive
// notifications. Deactivated users are retained for audit linkage.
func (u *User) IsActive() bool {
	return u.Status == UserActive
}
