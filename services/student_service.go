package services

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/apperr"
	"github.com/novafs/lms-api/utils/auth"
	"github.com/novafs/lms-api/utils/validation"
	"gorm.io/gorm"
)

// StudentService handles the manager's student accounts
type StudentService struct {
	db        *gorm.DB
	validator *validation.Validator
	media     media.Store
	blacklist *auth.BlacklistService
}

// NewStudentService creates a new student service
func NewStudentService(db *gorm.DB, validator *validation.Validator, store media.Store) *StudentService {
	return &StudentService{
		db:        db,
		validator: validator,
		media:     store,
		blacklist: auth.NewBlacklistService(db),
	}
}

// CreateStudentRequest represents the multipart create student form
type CreateStudentRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=5"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=5"`
}

// UpdateStudentRequest represents the multipart update student form.
// An empty password keeps the current one.
type UpdateStudentRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=5"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"omitempty,min=5"`
}

// StudentSummary is a row of the manager's student list
type StudentSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Photo   string `json:"photo"`
	Courses []uint `json:"courses"`
}

// StudentDetail is a single student profile
type StudentDetail struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

// StudentCourse is a course in the signed-in student's list
type StudentCourse struct {
	ID           uint        `json:"id"`
	Name         string      `json:"name"`
	Thumbnail    string      `json:"thumbnail"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Category     CategoryRef `json:"category"`
	EnrolledAt   time.Time   `json:"enrolled_at"`
}

func (s *StudentService) emailTaken(tx *gorm.DB, email string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(&model.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListStudents returns the manager's students with the ids of their courses
func (s *StudentService) ListStudents(ctx context.Context, managerID uint) ([]StudentSummary, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Preload("Enrollments").
		Where("role = ? AND manager_id = ?", model.RoleStudent, managerID).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal("list students", err)
	}

	students := make([]StudentSummary, 0, len(users))
	for _, u := range users {
		courses := make([]uint, 0, len(u.Enrollments))
		for _, e := range u.Enrollments {
			courses = append(courses, e.CourseID)
		}
		students = append(students, StudentSummary{ID: u.ID, Name: u.Name, Photo: u.Photo, Courses: courses})
	}
	return students, nil
}

// GetStudent returns one of the manager's students
func (s *StudentService) GetStudent(ctx context.Context, managerID, studentID uint) (*StudentDetail, error) {
	student, err := findOwnedStudent(s.db.WithContext(ctx), managerID, studentID)
	if err != nil {
		return nil, err
	}
	return &StudentDetail{ID: student.ID, Name: student.Name, Email: student.Email, Photo: student.Photo}, nil
}

// CreateStudent uploads the avatar and creates a student owned by the manager
func (s *StudentService) CreateStudent(ctx context.Context, managerID uint, req CreateStudentRequest, avatar *media.File) (*StudentDetail, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := mergeValidation(s.validator.Validate(req), requireImage("avatar", avatar, true)); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	taken, err := s.emailTaken(db, req.Email, 0)
	if err != nil {
		return nil, apperr.Internal("check email", err)
	}
	if taken {
		return nil, apperr.Validation("Error validation", "Email already registered")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	student := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleStudent,
		ManagerID:    &managerID,
	}

	_, err = uploadThenPersist(ctx, s.media, media.FolderStudents, *avatar, func(asset *media.Asset) error {
		student.Photo = asset.URL
		student.PhotoKey = asset.Key
		if err := db.Create(&student).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Validation("Error validation", "Email already registered")
			}
			return apperr.Internal("create student", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infow("student created", "student_id", student.ID, "manager_id", managerID)
	return &StudentDetail{ID: student.ID, Name: student.Name, Email: student.Email, Photo: student.Photo}, nil
}

// UpdateStudent changes a student's profile. The password is re-hashed only
// when a new one is given, which also signs the student out everywhere. The
// avatar is swapped only when a file is given.
func (s *StudentService) UpdateStudent(ctx context.Context, managerID, studentID uint, req UpdateStudentRequest, avatar *media.File) (*StudentDetail, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := mergeValidation(s.validator.Validate(req), requireImage("avatar", avatar, false)); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	student, err := findOwnedStudent(db, managerID, studentID)
	if err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(db, req.Email, student.ID)
	if err != nil {
		return nil, apperr.Internal("check email", err)
	}
	if taken {
		return nil, apperr.Validation("Error validation", "Email already registered")
	}

	updates := map[string]interface{}{
		"name":  req.Name,
		"email": req.Email,
	}
	if req.Password != "" {
		passwordHash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, apperr.Internal("hash password", err)
		}
		updates["password_hash"] = passwordHash
	}

	err = replaceAsset(ctx, s.media, media.FolderStudents, avatar, student.PhotoKey, func(asset *media.Asset) error {
		if asset != nil {
			updates["photo"] = asset.URL
			updates["photo_key"] = asset.Key
			student.Photo = asset.URL
		}
		if err := db.Model(&model.User{}).Where("id = ?", student.ID).Updates(updates).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Validation("Error validation", "Email already registered")
			}
			return apperr.Internal("update student", err)
		}
		if req.Password != "" {
			if err := s.blacklist.RevokeAllUserTokens(ctx, student.ID); err != nil {
				return apperr.Internal("revoke student tokens", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &StudentDetail{ID: student.ID, Name: req.Name, Email: req.Email, Photo: student.Photo}, nil
}

// DeleteStudent removes the student's enrollments and account in one
// transaction and deletes the avatar from the media store
func (s *StudentService) DeleteStudent(ctx context.Context, managerID, studentID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := findOwnedStudent(tx, managerID, studentID)
		if err != nil {
			return err
		}

		if err := tx.Where("student_id = ?", student.ID).Delete(&model.CourseStudent{}).Error; err != nil {
			return apperr.Internal("delete enrollments", err)
		}
		if err := tx.Delete(student).Error; err != nil {
			return apperr.Internal("delete student", err)
		}

		if err := s.media.Delete(ctx, student.PhotoKey); err != nil {
			return apperr.Internal("delete avatar", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Infow("student deleted", "student_id", studentID, "manager_id", managerID)
	return nil
}

// ListStudentCourses returns the courses the signed-in student is enrolled in
func (s *StudentService) ListStudentCourses(ctx context.Context, studentID uint) ([]StudentCourse, error) {
	type row struct {
		ID           uint
		Name         string
		Thumbnail    string
		CategoryID   uint
		CategoryName string
		EnrolledAt   time.Time
	}

	var rows []row
	err := s.db.WithContext(ctx).
		Table("course_students").
		Select("courses.id, courses.name, courses.thumbnail, course_students.enrolled_at, " +
			"categories.id AS category_id, categories.name AS category_name").
		Joins("JOIN courses ON courses.id = course_students.course_id").
		Joins("JOIN categories ON categories.id = courses.category_id").
		Where("course_students.student_id = ?", studentID).
		Order("course_students.enrolled_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("list student courses", err)
	}

	courses := make([]StudentCourse, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, StudentCourse{
			ID:           r.ID,
			Name:         r.Name,
			Thumbnail:    r.Thumbnail,
			ThumbnailURL: r.Thumbnail,
			Category:     CategoryRef{ID: r.CategoryID, Name: r.CategoryName},
			EnrolledAt:   r.EnrolledAt,
		})
	}
	return courses, nil
}
