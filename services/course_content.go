package services

import (
	"context"
	"strings"

	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/utils/apperr"
	"gorm.io/gorm"
)

const MsgContentNotFound = "Content not found"

// ContentRequest represents the create/update content body
type ContentRequest struct {
	CourseID  uint              `json:"courseId" validate:"required"`
	Title     string            `json:"title" validate:"required,min=5"`
	Type      model.ContentType `json:"type" validate:"required,oneof=video text"`
	YoutubeID string            `json:"youtubeId" validate:"required_if=Type video"`
	Text      string            `json:"text" validate:"required_if=Type text"`
}

func normalizeContentRequest(req *ContentRequest) {
	req.Title = strings.TrimSpace(req.Title)
	req.YoutubeID = strings.TrimSpace(req.YoutubeID)
	if req.Type == "" {
		req.Type = model.ContentTypeVideo
	}
}

// findOwnedContent loads a content item whose course belongs to the manager
func (s *CourseService) findOwnedContent(tx *gorm.DB, managerID, contentID uint) (*model.CourseContent, error) {
	var content model.CourseContent
	err := tx.Joins("JOIN courses ON courses.id = course_contents.course_id").
		Where("courses.manager_id = ?", managerID).
		First(&content, "course_contents.id = ?", contentID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(MsgContentNotFound)
		}
		return nil, apperr.Internal("load content", err)
	}
	return &content, nil
}

// CreateContent adds a content item to one of the manager's courses
func (s *CourseService) CreateContent(ctx context.Context, managerID uint, req ContentRequest) (*model.CourseContent, error) {
	normalizeContentRequest(&req)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if _, err := s.findOwnedCourse(db, managerID, req.CourseID); err != nil {
		return nil, err
	}

	content := model.CourseContent{
		Title:     req.Title,
		Type:      req.Type,
		YoutubeID: req.YoutubeID,
		Text:      req.Text,
		CourseID:  req.CourseID,
	}
	if err := db.Create(&content).Error; err != nil {
		return nil, apperr.Internal("create content", err)
	}
	return &content, nil
}

// UpdateContent rewrites a content item. Moving it to another course is
// allowed as long as the manager owns both.
func (s *CourseService) UpdateContent(ctx context.Context, managerID, contentID uint, req ContentRequest) (*model.CourseContent, error) {
	normalizeContentRequest(&req)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	content, err := s.findOwnedContent(db, managerID, contentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findOwnedCourse(db, managerID, req.CourseID); err != nil {
		return nil, err
	}

	content.Title = req.Title
	content.Type = req.Type
	content.YoutubeID = req.YoutubeID
	content.Text = req.Text
	content.CourseID = req.CourseID

	err = db.Model(&model.CourseContent{}).Where("id = ?", content.ID).Updates(map[string]interface{}{
		"title":      content.Title,
		"type":       content.Type,
		"youtube_id": content.YoutubeID,
		"text":       content.Text,
		"course_id":  content.CourseID,
	}).Error
	if err != nil {
		return nil, apperr.Internal("update content", err)
	}
	return content, nil
}

// DeleteContent removes a content item; it disappears from the course's
// content list with it
func (s *CourseService) DeleteContent(ctx context.Context, managerID, contentID uint) error {
	db := s.db.WithContext(ctx)
	content, err := s.findOwnedContent(db, managerID, contentID)
	if err != nil {
		return err
	}

	if err := db.Delete(&model.CourseContent{}, content.ID).Error; err != nil {
		return apperr.Internal("delete content", err)
	}
	return nil
}

// GetContent returns a content item of a course visible to the actor
func (s *CourseService) GetContent(ctx context.Context, actor Actor, contentID uint) (*model.CourseContent, error) {
	var content model.CourseContent
	err := visibleCourse(
		s.db.WithContext(ctx).Joins("JOIN courses ON courses.id = course_contents.course_id"),
		actor,
	).First(&content, "course_contents.id = ?", contentID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(MsgContentNotFound)
		}
		return nil, apperr.Internal("load content", err)
	}
	return &content, nil
}
