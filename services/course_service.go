package services

import (
	"context"
	"fmt"

	"quizblog/models"

	"gorm.io/gorm"
)

type CreateCourseCategoryRequest struct {
	Title       string `json:"title" binding:"required,max=80"`
	Description string `json:"description" binding:"required"`
}

type UpdateCourseCategoryRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=80"`
	Description *string `json:"description" binding:"omitempty,min=1"`
}

type CreateCourseRequest struct {
	Title          string `json:"title" binding:"required,max=80"`
	Description    string `json:"description" binding:"required"`
	CourseCategory string `json:"courseCategory" binding:"required"`
}

type UpdateCourseRequest struct {
	Title          *string `json:"title" binding:"omitempty,min=1,max=80"`
	Description    *string `json:"description" binding:"omitempty,min=1"`
	CourseCategory *string `json:"courseCategory" binding:"omitempty,min=1"`
}

type CreateChapterRequest struct {
	Title       string `json:"title" binding:"required,max=80"`
	Description string `json:"description" binding:"required"`
	Course      string `json:"course" binding:"required"`
}

type UpdateChapterRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=80"`
	Description *string `json:"description" binding:"omitempty,min=1"`
	Course      *string `json:"course" binding:"omitempty,min=1"`
}

// CourseService manages course categories, courses and chapters.
type CourseService struct {
	db      *gorm.DB
	cascade *Cascade
}

func NewCourseService(db *gorm.DB, cascade *Cascade) *CourseService {
	return &CourseService{db: db, cascade: cascade}
}

func (s *CourseService) GetCourseCategories(ctx context.Context) ([]models.CourseCategory, error) {
	var out []models.CourseCategory
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list course categories: %w", err)
	}
	return out, nil
}

func (s *CourseService) GetCourseCategory(ctx context.Context, id string) (*models.CourseCategory, error) {
	return getByID[models.CourseCategory](ctx, s.db, id, "Course category")
}

func (s *CourseService) CreateCourseCategory(ctx context.Context, userID string, req *CreateCourseCategoryRequest) (*models.CourseCategory, error) {
	cc := models.CourseCategory{Title: req.Title, Description: req.Description, CreatedBy: userID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree[models.CourseCategory](tx, req.Title, "", "Course category"); err != nil {
			return err
		}
		return tx.Create(&cc).Error
	})
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (s *CourseService) UpdateCourseCategory(ctx context.Context, id, userID string, req *UpdateCourseCategoryRequest) (*models.CourseCategory, error) {
	var cc *models.CourseCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cc, err = lockByID[models.CourseCategory](tx, id, "Course category"); err != nil {
			return err
		}
		if err := applyTitled[models.CourseCategory](tx, id, "Course category", &cc.Title, &cc.Description, req.Title, req.Description); err != nil {
			return err
		}
		cc.LastUpdatedBy = userID
		return tx.Save(cc).Error
	})
	if err != nil {
		return nil, err
	}
	return cc, nil
}

func (s *CourseService) DeleteCourseCategory(ctx context.Context, id string) error {
	return s.cascade.DeleteCourseCategory(ctx, id)
}

func (s *CourseService) GetCourses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return out, nil
}

func (s *CourseService) GetCoursesByCategory(ctx context.Context, courseCategoryID string) ([]models.Course, error) {
	var out []models.Course
	err := s.db.WithContext(ctx).
		Where("course_category = ?", courseCategoryID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list courses of category %s: %w", courseCategoryID, err)
	}
	return out, nil
}

func (s *CourseService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	return getByID[models.Course](ctx, s.db, id, "Course")
}

func (s *CourseService) CreateCourse(ctx context.Context, userID string, req *CreateCourseRequest) (*models.Course, error) {
	course := models.Course{
		Title:          req.Title,
		Description:    req.Description,
		CourseCategory: req.CourseCategory,
		CreatedBy:      userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree[models.Course](tx, req.Title, "", "Course"); err != nil {
			return err
		}
		if _, err := lockByID[models.CourseCategory](tx, req.CourseCategory, "Course category"); err != nil {
			return err
		}
		return tx.Create(&course).Error
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// UpdateCourse applies a partial update. Moving the course to another course
// category carries its chapters, notes and downloads along.
func (s *CourseService) UpdateCourse(ctx context.Context, id, userID string, req *UpdateCourseRequest) (*models.Course, error) {
	var course *models.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if course, err = lockByID[models.Course](tx, id, "Course"); err != nil {
			return err
		}
		if err := applyTitled[models.Course](tx, id, "Course", &course.Title, &course.Description, req.Title, req.Description); err != nil {
			return err
		}
		if req.CourseCategory != nil && *req.CourseCategory != course.CourseCategory {
			target, err := lockByID[models.CourseCategory](tx, *req.CourseCategory, "Course category")
			if err != nil {
				return err
			}
			set := map[string]interface{}{"course_category": target.ID}
			if err := reparent(tx, "course", id, set, &models.Chapter{}, &models.Notes{}, &models.Download{}); err != nil {
				return err
			}
			course.CourseCategory = target.ID
		}
		course.LastUpdatedBy = userID
		return tx.Save(course).Error
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, id string) error {
	return s.cascade.DeleteCourse(ctx, id)
}

func (s *CourseService) GetChapters(ctx context.Context) ([]ChapterView, error) {
	db := s.db.WithContext(ctx)
	var out []models.Chapter
	if err := db.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapterViews(db, out)
}

// GetChaptersByCourse lists a course's chapters in the order they were added.
func (s *CourseService) GetChaptersByCourse(ctx context.Context, courseID string) ([]ChapterView, error) {
	db := s.db.WithContext(ctx)
	var out []models.Chapter
	err := db.Where("course = ?", courseID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters of course %s: %w", courseID, err)
	}
	return chapterViews(db, out)
}

func (s *CourseService) GetChapter(ctx context.Context, id string) (*ChapterView, error) {
	chapter, err := getByID[models.Chapter](ctx, s.db, id, "Chapter")
	if err != nil {
		return nil, err
	}
	return viewOne(s.db.WithContext(ctx), chapter, chapterViews)
}

func (s *CourseService) CreateChapter(ctx context.Context, userID string, req *CreateChapterRequest) (*models.Chapter, error) {
	chapter := models.Chapter{
		Title:       req.Title,
		Description: req.Description,
		Course:      req.Course,
		CreatedBy:   userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree[models.Chapter](tx, req.Title, "", "Chapter"); err != nil {
			return err
		}
		course, err := lockByID[models.Course](tx, req.Course, "Course")
		if err != nil {
			return err
		}
		chapter.CourseCategory = course.CourseCategory
		return tx.Create(&chapter).Error
	})
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// UpdateChapter applies a partial update. Moving the chapter to another course
// rewrites the course and course category copied onto its notes and downloads.
func (s *CourseService) UpdateChapter(ctx context.Context, id, userID string, req *UpdateChapterRequest) (*models.Chapter, error) {
	var chapter *models.Chapter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if chapter, err = lockByID[models.Chapter](tx, id, "Chapter"); err != nil {
			return err
		}
		if err := applyTitled[models.Chapter](tx, id, "Chapter", &chapter.Title, &chapter.Description, req.Title, req.Description); err != nil {
			return err
		}
		if req.Course != nil && *req.Course != chapter.Course {
			target, err := lockByID[models.Course](tx, *req.Course, "Course")
			if err != nil {
				return err
			}
			set := map[string]interface{}{"course": target.ID, "course_category": target.CourseCategory}
			if err := reparent(tx, "chapter", id, set, &models.Notes{}, &models.Download{}); err != nil {
				return err
			}
			chapter.Course = target.ID
			chapter.CourseCategory = target.CourseCategory
		}
		chapter.LastUpdatedBy = userID
		return tx.Save(chapter).Error
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

func (s *CourseService) DeleteChapter(ctx context.Context, id string) error {
	return s.cascade.DeleteChapter(ctx, id)
}

// reparent rewrites the copied ancestor ids on every row of each model whose
// column points at id.
func reparent(tx *gorm.DB, column, id string, set map[string]interface{}, rows ...interface{}) error {
	for _, m := range rows {
		if err := tx.Model(m).Where(column+" = ?", id).Updates(set).Error; err != nil {
			return fmt.Errorf("failed to move rows under %s %s: %w", column, id, err)
		}
	}
	return nil
}

func ensureTitleFree[T any](tx *gorm.DB, title, exceptID, what string) error {
	dup, err := taken[T](tx, "title", title, exceptID)
	if err != nil {
		return err
	}
	if dup {
		return conflict(what)
	}
	return nil
}

// applyTitled copies a partial title/description update onto a record.
func applyTitled[T any](tx *gorm.DB, id, what string, title, description *string, newTitle, newDescription *string) error {
	if newTitle != nil && *newTitle != *title {
		if err := ensureTitleFree[T](tx, *newTitle, id, what); err != nil {
			return err
		}
		*title = *newTitle
	}
	if newDescription != nil {
		*description = *newDescription
	}
	return nil
}
