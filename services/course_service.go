package services

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/apperr"
	"github.com/novafs/lms-api/utils/validation"
	"gorm.io/gorm"
)

const (
	MsgCourseNotFound   = "Course not found"
	MsgCategoryNotFound = "Category ID not found"

	categoriesCacheKey = "categories"
	categoriesCacheTTL = 10 * time.Minute
)

// JSONCache is the optional read-through cache for the category list.
// *cache.RedisCache satisfies it.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CourseService handles courses, categories, course contents and enrollment
type CourseService struct {
	db        *gorm.DB
	validator *validation.Validator
	media     media.Store
	cache     JSONCache
}

// NewCourseService creates a new course service. cache may be nil.
func NewCourseService(db *gorm.DB, validator *validation.Validator, store media.Store, cache JSONCache) *CourseService {
	return &CourseService{
		db:        db,
		validator: validator,
		media:     store,
		cache:     cache,
	}
}

// CourseRequest represents the multipart create/update course form
type CourseRequest struct {
	Name        string `json:"name" form:"name" validate:"required,min=5"`
	CategoryID  uint   `json:"categoryId" form:"categoryId" validate:"required"`
	Description string `json:"description" form:"description" validate:"required,min=10"`
	Tagline     string `json:"tagline" form:"tagline" validate:"required,min=5"`
}

// CourseSummary is a row of the manager's course list
type CourseSummary struct {
	ID            uint        `json:"id"`
	Name          string      `json:"name"`
	Thumbnail     string      `json:"thumbnail"`
	Category      CategoryRef `json:"category"`
	TotalStudents int64       `json:"total_students"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ContentItem is a course content entry inside a course detail
type ContentItem struct {
	ID        uint              `json:"id"`
	Title     string            `json:"title"`
	Type      model.ContentType `json:"type"`
	YoutubeID string            `json:"youtube_id,omitempty"`
	Text      string            `json:"text,omitempty"`
}

// CourseDetail is a single course with its category and contents
type CourseDetail struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Tagline     string        `json:"tagline"`
	Thumbnail   string        `json:"thumbnail"`
	Category    CategoryRef   `json:"category"`
	Details     []ContentItem `json:"details"`
	CreatedAt   time.Time     `json:"created_at"`
}

func trimCourseRequest(req *CourseRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Tagline = strings.TrimSpace(req.Tagline)
}

// ListCourses returns the manager's courses with category name and student count
func (s *CourseService) ListCourses(ctx context.Context, managerID uint) ([]CourseSummary, error) {
	type row struct {
		ID            uint
		Name          string
		Thumbnail     string
		CreatedAt     time.Time
		CategoryID    uint
		CategoryName  string
		TotalStudents int64
	}

	var rows []row
	err := s.db.WithContext(ctx).
		Table("courses").
		Select("courses.id, courses.name, courses.thumbnail, courses.created_at, " +
			"categories.id AS category_id, categories.name AS category_name, " +
			"COUNT(course_students.student_id) AS total_students").
		Joins("JOIN categories ON categories.id = courses.category_id").
		Joins("LEFT JOIN course_students ON course_students.course_id = courses.id").
		Where("courses.manager_id = ?", managerID).
		Group("courses.id, categories.id").
		Order("courses.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal("list courses", err)
	}

	courses := make([]CourseSummary, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, CourseSummary{
			ID:            r.ID,
			Name:          r.Name,
			Thumbnail:     r.Thumbnail,
			Category:      CategoryRef{ID: r.CategoryID, Name: r.CategoryName},
			TotalStudents: r.TotalStudents,
			CreatedAt:     r.CreatedAt,
		})
	}
	return courses, nil
}

// ListCategories returns every category, served from cache when available
func (s *CourseService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if s.cache != nil {
		if err := s.cache.GetJSON(ctx, categoriesCacheKey, &categories); err == nil {
			return categories, nil
		}
	}

	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperr.Internal("list categories", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, categoriesCacheKey, categories, categoriesCacheTTL); err != nil {
			log.Warnw("failed to cache categories", "error", err)
		}
	}
	return categories, nil
}

// visibleCourse scopes a course query to what the actor may read: managers
// see their own courses, students the courses they are enrolled in
func visibleCourse(db *gorm.DB, actor Actor) *gorm.DB {
	if actor.IsManager() {
		return db.Where("courses.manager_id = ?", actor.ID)
	}
	return db.Where("EXISTS (SELECT 1 FROM course_students cs WHERE cs.course_id = courses.id AND cs.student_id = ?)", actor.ID)
}

// GetCourse returns the course with category and contents. Without preview
// the contents carry only id, title and type.
func (s *CourseService) GetCourse(ctx context.Context, actor Actor, courseID uint, preview bool) (*CourseDetail, error) {
	var course model.Course
	err := visibleCourse(s.db.WithContext(ctx), actor).
		Preload("Category").
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_contents.id ASC")
		}).
		First(&course, courseID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(MsgCourseNotFound)
		}
		return nil, apperr.Internal("load course", err)
	}

	detail := &CourseDetail{
		ID:          course.ID,
		Name:        course.Name,
		Description: course.Description,
		Tagline:     course.Tagline,
		Thumbnail:   course.Thumbnail,
		Details:     make([]ContentItem, 0, len(course.Details)),
		CreatedAt:   course.CreatedAt,
	}
	if course.Category != nil {
		detail.Category = CategoryRef{ID: course.Category.ID, Name: course.Category.Name}
	}

	for _, c := range course.Details {
		item := ContentItem{ID: c.ID, Title: c.Title, Type: c.Type}
		if preview {
			item.YoutubeID = c.YoutubeID
			item.Text = c.Text
		}
		detail.Details = append(detail.Details, item)
	}
	return detail, nil
}

func (s *CourseService) ensureCategory(tx *gorm.DB, categoryID uint) error {
	var count int64
	if err := tx.Model(&model.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return apperr.Internal("load category", err)
	}
	if count == 0 {
		return apperr.NotFound(MsgCategoryNotFound)
	}
	return nil
}

func (s *CourseService) findOwnedCourse(tx *gorm.DB, managerID, courseID uint) (*model.Course, error) {
	var course model.Course
	if err := tx.Where("manager_id = ?", managerID).First(&course, courseID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(MsgCourseNotFound)
		}
		return nil, apperr.Internal("load course", err)
	}
	return &course, nil
}

// CreateCourse uploads the thumbnail and stores a new course for the manager
func (s *CourseService) CreateCourse(ctx context.Context, managerID uint, req CourseRequest, thumbnail *media.File) (*model.Course, error) {
	trimCourseRequest(&req)
	if err := mergeValidation(s.validator.Validate(req), requireImage("thumbnail", thumbnail, true)); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := s.ensureCategory(db, req.CategoryID); err != nil {
		return nil, err
	}

	course := model.Course{
		Name:        req.Name,
		Description: req.Description,
		Tagline:     req.Tagline,
		ManagerID:   managerID,
		CategoryID:  req.CategoryID,
	}

	_, err := uploadThenPersist(ctx, s.media, media.FolderCourses, *thumbnail, func(asset *media.Asset) error {
		course.Thumbnail = asset.URL
		course.ThumbnailKey = asset.Key
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&course).Error; err != nil {
				return apperr.Internal("create course", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Infow("course created", "course_id", course.ID, "manager_id", managerID)
	return &course, nil
}

// UpdateCourse changes course fields and, when a new thumbnail is given,
// swaps the stored image
func (s *CourseService) UpdateCourse(ctx context.Context, managerID, courseID uint, req CourseRequest, thumbnail *media.File) (*model.Course, error) {
	trimCourseRequest(&req)
	if err := mergeValidation(s.validator.Validate(req), requireImage("thumbnail", thumbnail, false)); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	course, err := s.findOwnedCourse(db, managerID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategory(db, req.CategoryID); err != nil {
		return nil, err
	}

	oldKey := course.ThumbnailKey
	err = replaceAsset(ctx, s.media, media.FolderCourses, thumbnail, oldKey, func(asset *media.Asset) error {
		updates := map[string]interface{}{
			"name":        req.Name,
			"description": req.Description,
			"tagline":     req.Tagline,
			"category_id": req.CategoryID,
		}
		if asset != nil {
			updates["thumbnail"] = asset.URL
			updates["thumbnail_key"] = asset.Key
		}
		if err := db.Model(&model.Course{}).Where("id = ?", course.ID).Updates(updates).Error; err != nil {
			return apperr.Internal("update course", err)
		}

		course.Name = req.Name
		course.Description = req.Description
		course.Tagline = req.Tagline
		course.CategoryID = req.CategoryID
		if asset != nil {
			course.Thumbnail = asset.URL
			course.ThumbnailKey = asset.Key
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return course, nil
}

// DeleteCourse removes the course together with its contents and enrollments,
// and deletes its thumbnail from the media store
func (s *CourseService) DeleteCourse(ctx context.Context, managerID, courseID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.findOwnedCourse(tx, managerID, courseID)
		if err != nil {
			return err
		}

		if err := tx.Where("course_id = ?", course.ID).Delete(&model.CourseContent{}).Error; err != nil {
			return apperr.Internal("delete course contents", err)
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&model.CourseStudent{}).Error; err != nil {
			return apperr.Internal("delete enrollments", err)
		}
		if err := tx.Delete(course).Error; err != nil {
			return apperr.Internal("delete course", err)
		}

		// The row delete is committed only when the remote image is gone
		if err := s.media.Delete(ctx, course.ThumbnailKey); err != nil {
			return apperr.Internal("delete thumbnail", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Infow("course deleted", "course_id", courseID, "manager_id", managerID)
	return nil
}
