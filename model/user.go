package model

import (
	"time"
)

// Role is the account role tag
type Role string

const (
	RoleManager Role = "manager"
	RoleStudent Role = "student"
)

// DefaultPhoto is stored for managers created through sign-up
const DefaultPhoto = "default.png"

// User represents a manager or student account.
// A student always has a ManagerID; a manager never has one.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Photo        string    `gorm:"type:text;not null" json:"photo"`
	PhotoKey     string    `gorm:"type:varchar(512)" json:"-"` // Remote asset key of Photo
	PasswordHash string    `gorm:"not null" json:"-"`          // Never expose password in JSON
	Role         Role      `gorm:"type:varchar(20);not null;default:'manager';index" json:"role"`
	ManagerID    *uint     `gorm:"index" json:"manager_id,omitempty"`
	TokenVersion int       `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Manager        *User               `gorm:"foreignKey:ManagerID;constraint:OnDelete:CASCADE" json:"-"`
	OwnedCourses   []Course            `gorm:"foreignKey:ManagerID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments    []CourseStudent     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Transactions   []Transaction       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsStudent reports whether the account is a student
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
