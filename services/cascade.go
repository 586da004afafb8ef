package services

import (
	"context"
	"fmt"

	"quizblog/logging"
	"quizblog/metrics"
	"quizblog/models"
	"quizblog/storage"

	"gorm.io/gorm"
)

// Cascade deletes containers together with everything that hangs off them.
// Each delete runs in one transaction. Stored files of removed notes are
// deleted after commit; failures there are logged and otherwise ignored.
type Cascade struct {
	db    *gorm.DB
	files storage.ObjectStore
}

func NewCascade(db *gorm.DB, files storage.ObjectStore) *Cascade {
	return &Cascade{db: db, files: files}
}

func (c *Cascade) run(ctx context.Context, kind string, fn func(tx *gorm.DB) ([]string, error)) error {
	var files []string
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		files, err = fn(tx)
		return err
	})
	if err != nil {
		metrics.CascadeDeletesTotal.WithLabelValues(kind, "failed").Inc()
		return err
	}
	metrics.CascadeDeletesTotal.WithLabelValues(kind, "ok").Inc()
	c.removeFiles(context.WithoutCancel(ctx), files)
	return nil
}

func (c *Cascade) removeFiles(ctx context.Context, locations []string) {
	if c.files == nil {
		return
	}
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		key := storage.KeyFromLocation(loc)
		if err := c.files.Delete(ctx, key); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to delete notes file")
		}
	}
}

// DeleteCategory removes a category, its quizzes and their questions.
func (c *Cascade) DeleteCategory(ctx context.Context, id string) error {
	return c.run(ctx, "category", func(tx *gorm.DB) ([]string, error) {
		if _, err := lockByID[models.Category](tx, id, "Category"); err != nil {
			return nil, err
		}
		quizIDs, err := pluckIDs(tx.Model(&models.Quiz{}).Where("category = ?", id))
		if err != nil {
			return nil, fmt.Errorf("failed to list quizzes of category %s: %w", id, err)
		}
		if err := tx.Where("category = ? OR quiz IN ?", id, orNone(quizIDs)).Delete(&models.Question{}).Error; err != nil {
			return nil, fmt.Errorf("failed to delete questions of category %s: %w", id, err)
		}
		if err := tx.Where("category = ?", id).Delete(&models.Quiz{}).Error; err != nil {
			return nil, fmt.Errorf("failed to delete quizzes of category %s: %w", id, err)
		}
		if err := tx.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("failed to delete category %s: %w", id, err)
		}
		return nil, nil
	})
}

// DeleteQuiz removes a quiz and its questions and pulls it from its category.
func (c *Cascade) DeleteQuiz(ctx context.Context, id string) error {
	return c.run(ctx, "quiz", func(tx *gorm.DB) ([]string, error) {
		quiz, err := lockByID[models.Quiz](tx, id, "Quiz")
		if err != nil {
			return nil, err
		}
		if err := tx.Where("quiz = ?", id).Delete(&models.Question{}).Error; err != nil {
			return nil, fmt.Errorf("failed to delete questions of quiz %s: %w", id, err)
		}
		if err := pullQuizFromCategory(tx, quiz.Category, id); err != nil {
			return nil, err
		}
		if err := tx.Delete(&models.Quiz{}, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("failed to delete quiz %s: %w", id, err)
		}
		return nil, nil
	})
}

func (c *Cascade) DeleteCourseCategory(ctx context.Context, id string) error {
	return c.run(ctx, "course_category", func(tx *gorm.DB) ([]string, error) {
		if _, err := lockByID[models.CourseCategory](tx, id, "Course category"); err != nil {
			return nil, err
		}
		courseIDs, err := pluckIDs(tx.Model(&models.Course{}).Where("course_category = ?", id))
		if err != nil {
			return nil, fmt.Errorf("failed to list courses of category %s: %w", id, err)
		}
		chapterIDs, err := pluckIDs(tx.Model(&models.Chapter{}).
			Where("course_category = ? OR course IN ?", id, orNone(courseIDs)))
		if err != nil {
			return nil, fmt.Errorf("failed to list chapters of category %s: %w", id, err)
		}
		files, err := deleteNotesWhere(tx, "course_category = ? OR course IN ? OR chapter IN ?",
			id, orNone(courseIDs), orNone(chapterIDs))
		if err != nil {
			return nil, err
		}
		if err := tx.Where("id IN ?", orNone(chapterIDs)).Delete(&models.Chapter{}).Error; err != nil {
			return nil, fmt.Errorf("failed to delete chapters of category %s: %w", id, err)
		}
		if err := tx.Where("id IN ?", orNone(courseIDs)).Delete(&models.Course{}).Error; err != nil {
			return nil, fmt.Errorf("failed to delete courses of category %s: %w", id, err)
		}
		if err := tx.Delete(&models.CourseCategory{}, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("failed to delete course category %s: %w", id, err)
		}
		return files, nil
	})
}

func (c *Cascade) DeleteCourse(ctx context.Context, id string) error {
	return c.run(ctx, "course", func(tx *gorm.DB) ([]string, error) {
		if _, err := lockByID[models.Course](tx, id, "Course"); err != nil {
			return nil, err
		}
		chapterIDs, err := pluckIDs(tx.Model(&models.Chapter{}).Where("course = ?", id))
		if err != nil {
			return nil, fmt.Errorf("failed to list chapters of course %s: %w", id, err)
		}
		files, err := deleteNotesWhere(tx, "course = ? OR chapter IN ?", id, orNone(chapterIDs))
		if err != nil {
			return nil, err
		}
		if err := tx.Where("course = ?", id).Delete(&models.Chapter{}).Error; err != nil {
			return nil, fmt.Errorf("failed to delete chapters of course %s: %w", id, err)
		}
		if err := tx.Delete(&models.Course{}, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("failed to delete course %s: %w", id, err)
		}
		return files, nil
	})
}

func (c *Cascade) DeleteChapter(ctx context.Context, id string) error {
	return c.run(ctx, "chapter", func(tx *gorm.DB) ([]string, error) {
		if _, err := lockByID[models.Chapter](tx, id, "Chapter"); err != nil {
			return nil, err
		}
		files, err := deleteNotesWhere(tx, "chapter = ?", id)
		if err != nil {
			return nil, err
		}
		if err := tx.Delete(&models.Chapter{}, "id = ?", id).Error; err != nil {
			return nil, fmt.Errorf("failed to delete chapter %s: %w", id, err)
		}
		return files, nil
	})
}

// DeleteNotes removes one notes record, its downloads and its stored file.
func (c *Cascade) DeleteNotes(ctx context.Context, id string) error {
	return c.run(ctx, "notes", func(tx *gorm.DB) ([]string, error) {
		if _, err := lockByID[models.Notes](tx, id, "Notes"); err != nil {
			return nil, err
		}
		return deleteNotesWhere(tx, "id = ?", id)
	})
}

// deleteNotesWhere deletes the matching notes and their downloads, returning
// the file locations to clean up once the transaction commits.
func deleteNotesWhere(tx *gorm.DB, query string, args ...interface{}) ([]string, error) {
	var notes []models.Notes
	if err := tx.Select("id", "notes_file").Where(query, args...).Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if len(notes) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(notes))
	files := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
		files = append(files, n.NotesFile)
	}
	if err := tx.Where("notes IN ?", ids).Delete(&models.Download{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete downloads: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Notes{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete notes: %w", err)
	}
	return files, nil
}

func pullQuizFromCategory(tx *gorm.DB, categoryID, quizID string) error {
	if categoryID == "" {
		return nil
	}
	var cat models.Category
	res := tx.Clauses(lockForUpdate).Where("id = ?", categoryID).Limit(1).Find(&cat)
	if res.Error != nil {
		return fmt.Errorf("failed to load category %s: %w", categoryID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	if err := tx.Model(&cat).Update("quizes", pull(cat.Quizes, quizID)).Error; err != nil {
		return fmt.Errorf("failed to update category %s: %w", categoryID, err)
	}
	return nil
}

func addQuizToCategory(tx *gorm.DB, categoryID, quizID string) error {
	cat, err := lockByID[models.Category](tx, categoryID, "Category")
	if err != nil {
		return err
	}
	if err := tx.Model(cat).Update("quizes", addToSet(cat.Quizes, quizID)).Error; err != nil {
		return fmt.Errorf("failed to update category %s: %w", categoryID, err)
	}
	return nil
}

func pullQuestionFromQuiz(tx *gorm.DB, quizID, questionID string) error {
	if quizID == "" {
		return nil
	}
	var quiz models.Quiz
	res := tx.Clauses(lockForUpdate).Where("id = ?", quizID).Limit(1).Find(&quiz)
	if res.Error != nil {
		return fmt.Errorf("failed to load quiz %s: %w", quizID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	if err := tx.Model(&quiz).Update("questions", pull(quiz.Questions, questionID)).Error; err != nil {
		return fmt.Errorf("failed to update quiz %s: %w", quizID, err)
	}
	return nil
}

func addQuestionToQuiz(tx *gorm.DB, quiz *models.Quiz, questionID string) error {
	if err := tx.Model(quiz).Update("questions", addToSet(quiz.Questions, questionID)).Error; err != nil {
		return fmt.Errorf("failed to update quiz %s: %w", quiz.ID, err)
	}
	return nil
}

// orNone keeps "IN ?" valid for empty id lists.
func orNone(ids []string) []string {
	if len(ids) == 0 {
		return []string{""}
	}
	return ids
}
