package model

import (
	"time"
)

// ContentType is the kind of a course content item
type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypeText  ContentType = "text"
)

// Category groups courses
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`

	// Relationships
	Courses []Course `gorm:"foreignKey:CategoryID" json:"courses,omitempty"`
}

// Course is owned by a manager and belongs to one category
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Tagline      string    `gorm:"type:varchar(255)" json:"tagline"`
	Thumbnail    string    `gorm:"type:text" json:"thumbnail"`
	ThumbnailKey string    `gorm:"type:varchar(512)" json:"-"` // Remote asset key of Thumbnail
	ManagerID    uint      `gorm:"not null;index" json:"manager_id"`
	CategoryID   uint      `gorm:"not null;index" json:"category_id"`

	// Relationships
	Manager  *User           `gorm:"foreignKey:ManagerID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Details  []CourseContent `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
	Students []CourseStudent `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// CourseContent is a single video or text item of a course
type CourseContent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Title     string      `gorm:"not null" json:"title"`
	Type      ContentType `gorm:"type:varchar(10);not null;default:'video'" json:"type"`
	YoutubeID string      `gorm:"type:varchar(64)" json:"youtube_id,omitempty"`
	Text      string      `gorm:"type:text" json:"text,omitempty"`
	CourseID  uint        `gorm:"not null;index" json:"course_id"`

	// Relationships
	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for CourseContent
func (CourseContent) TableName() string {
	return "course_contents"
}

// CourseStudent is the enrollment relation between a course and a student.
// Both a course's student list and a student's course list are read from it.
type CourseStudent struct {
	CourseID   uint      `gorm:"primaryKey" json:"course_id"`
	StudentID  uint      `gorm:"primaryKey;index" json:"student_id"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`

	// Relationships
	Course  *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// TableName specifies the table name for CourseStudent
func (CourseStudent) TableName() string {
	return "course_students"
}
