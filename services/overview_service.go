package services

import (
	"context"
	"time"

	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/utils/apperr"
	"gorm.io/gorm"
)

const overviewLatestLimit = 5

// Overview holds the manager dashboard counters
type Overview struct {
	TotalCourses   int64            `json:"total_courses"`
	TotalStudents  int64            `json:"total_students"`
	TotalVideos    int64            `json:"total_videos"`
	TotalTexts     int64            `json:"total_texts"`
	LatestCourses  []OverviewCourse `json:"courses"`
	LatestStudents []StudentDetail  `json:"students"`
}

// OverviewCourse is a recent course on the dashboard
type OverviewCourse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Thumbnail     string    `json:"thumbnail"`
	TotalStudents int64     `json:"total_students"`
	CreatedAt     time.Time `json:"created_at"`
}

// OverviewService builds the manager dashboard
type OverviewService struct {
	db *gorm.DB
}

// NewOverviewService creates a new overview service
func NewOverviewService(db *gorm.DB) *OverviewService {
	return &OverviewService{db: db}
}

func (s *OverviewService) countContents(db *gorm.DB, managerID uint, contentType model.ContentType) (int64, error) {
	var count int64
	err := db.Model(&model.CourseContent{}).
		Joins("JOIN courses ON courses.id = course_contents.course_id").
		Where("courses.manager_id = ? AND course_contents.type = ?", managerID, contentType).
		Count(&count).Error
	return count, err
}

// GetOverview returns totals and the latest courses and students of the manager
func (s *OverviewService) GetOverview(ctx context.Context, managerID uint) (*Overview, error) {
	db := s.db.WithContext(ctx)
	overview := &Overview{
		LatestCourses:  make([]OverviewCourse, 0),
		LatestStudents: make([]StudentDetail, 0),
	}

	if err := db.Model(&model.Course{}).Where("manager_id = ?", managerID).Count(&overview.TotalCourses).Error; err != nil {
		return nil, apperr.Internal("count courses", err)
	}

	err := db.Model(&model.User{}).
		Where("role = ? AND manager_id = ?", model.RoleStudent, managerID).
		Count(&overview.TotalStudents).Error
	if err != nil {
		return nil, apperr.Internal("count students", err)
	}

	if overview.TotalVideos, err = s.countContents(db, managerID, model.ContentTypeVideo); err != nil {
		return nil, apperr.Internal("count videos", err)
	}
	if overview.TotalTexts, err = s.countContents(db, managerID, model.ContentTypeText); err != nil {
		return nil, apperr.Internal("count texts", err)
	}

	err = db.Table("courses").
		Select("courses.id, courses.name, courses.thumbnail, courses.created_at, COUNT(course_students.student_id) AS total_students").
		Joins("LEFT JOIN course_students ON course_students.course_id = courses.id").
		Where("courses.manager_id = ?", managerID).
		Group("courses.id").
		Order("courses.created_at DESC").
		Limit(overviewLatestLimit).
		Scan(&overview.LatestCourses).Error
	if err != nil {
		return nil, apperr.Internal("latest courses", err)
	}

	err = db.Model(&model.User{}).
		Select("id, name, email, photo").
		Where("role = ? AND manager_id = ?", model.RoleStudent, managerID).
		Order("created_at DESC").
		Limit(overviewLatestLimit).
		Scan(&overview.LatestStudents).Error
	if err != nil {
		return nil, apperr.Internal("latest students", err)
	}

	return overview, nil
}
