package services

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/utils/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const MsgStudentNotFound = "Student not found"

// EnrollmentRequest represents the add/remove student body
type EnrollmentRequest struct {
	StudentID uint `json:"studentId" validate:"required"`
}

// CourseStudentItem is a student inside a course roster
type CourseStudentItem struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

// CourseRoster is a course name with its enrolled students
type CourseRoster struct {
	ID       uint                `json:"id"`
	Name     string              `json:"name"`
	Students []CourseStudentItem `json:"students"`
}

// findOwnedStudent loads a student account managed by the manager
func findOwnedStudent(tx *gorm.DB, managerID, studentID uint) (*model.User, error) {
	var student model.User
	err := tx.Where("role = ? AND manager_id = ?", model.RoleStudent, managerID).First(&student, studentID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(MsgStudentNotFound)
		}
		return nil, apperr.Internal("load student", err)
	}
	return &student, nil
}

// GetCourseStudents returns the roster of one of the manager's courses
func (s *CourseService) GetCourseStudents(ctx context.Context, managerID, courseID uint) (*CourseRoster, error) {
	db := s.db.WithContext(ctx)
	course, err := s.findOwnedCourse(db, managerID, courseID)
	if err != nil {
		return nil, err
	}

	students := make([]CourseStudentItem, 0)
	err = db.Table("users").
		Select("users.id, users.name, users.email, users.photo").
		Joins("JOIN course_students ON course_students.student_id = users.id").
		Where("course_students.course_id = ?", course.ID).
		Order("course_students.enrolled_at ASC").
		Scan(&students).Error
	if err != nil {
		return nil, apperr.Internal("load roster", err)
	}

	return &CourseRoster{ID: course.ID, Name: course.Name, Students: students}, nil
}

// AddStudent enrolls a student in a course. Enrolling twice is a no-op.
func (s *CourseService) AddStudent(ctx context.Context, managerID, courseID uint, req EnrollmentRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	if _, err := s.findOwnedCourse(db, managerID, courseID); err != nil {
		return err
	}
	if _, err := findOwnedStudent(db, managerID, req.StudentID); err != nil {
		return err
	}

	enrollment := model.CourseStudent{CourseID: courseID, StudentID: req.StudentID}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment).Error
	if err != nil {
		return apperr.Internal("enroll student", err)
	}

	log.Infow("student enrolled", "course_id", courseID, "student_id", req.StudentID)
	return nil
}

// RemoveStudent unenrolls a student from a course. Removing a student who
// is not enrolled is a no-op.
func (s *CourseService) RemoveStudent(ctx context.Context, managerID, courseID uint, req EnrollmentRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	if _, err := s.findOwnedCourse(db, managerID, courseID); err != nil {
		return err
	}

	err := db.Where("course_id = ? AND student_id = ?", courseID, req.StudentID).
		Delete(&model.CourseStudent{}).Error
	if err != nil {
		return apperr.Internal("unenroll student", err)
	}
	return nil
}
