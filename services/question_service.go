package services

import (
	"context"
	"fmt"

	"quizblog/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

type AnswerOptionRequest struct {
	AnswerText   string  `json:"answerText" binding:"required"`
	Explanations *string `json:"explanations"`
	IsCorrect    bool    `json:"isCorrect"`
}

type CreateQuestionRequest struct {
	QuestionText  string                `json:"questionText" binding:"required"`
	AnswerOptions []AnswerOptionRequest `json:"answerOptions" binding:"required,min=1,dive"`
	Quiz          string                `json:"quiz" binding:"required"`
	Category      string                `json:"category"`
	Duration      int                   `json:"duration" binding:"omitempty,min=1,max=3600"`
}

type UpdateQuestionRequest struct {
	QuestionText  *string                `json:"questionText" binding:"omitempty,min=1"`
	AnswerOptions *[]AnswerOptionRequest `json:"answerOptions" binding:"omitempty,min=1,dive"`
	Quiz          *string                `json:"quiz" binding:"omitempty,min=1"`
	Duration      *int                   `json:"duration" binding:"omitempty,min=1,max=3600"`
}

func toAnswerOptions(in []AnswerOptionRequest) (datatypes.JSONSlice[models.AnswerOption], error) {
	out := make(datatypes.JSONSlice[models.AnswerOption], 0, len(in))
	correct := 0
	for _, o := range in {
		if o.IsCorrect {
			correct++
		}
		out = append(out, models.AnswerOption{
			AnswerText:   o.AnswerText,
			Explanations: o.Explanations,
			IsCorrect:    o.IsCorrect,
		})
	}
	if correct == 0 {
		return nil, newError(ErrValidation, "A question needs at least one correct answer")
	}
	return out, nil
}

func (s *QuestionService) GetQuestions(ctx context.Context) ([]QuestionView, error) {
	db := s.db.WithContext(ctx)
	var questions []models.Question
	if err := db.Order("creation_date DESC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questionViews(db, questions)
}

func (s *QuestionService) GetQuestionsByQuiz(ctx context.Context, quizID string) ([]QuestionView, error) {
	db := s.db.WithContext(ctx)
	var questions []models.Question
	err := db.Where("quiz = ?", quizID).
		Order("creation_date ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions of quiz %s: %w", quizID, err)
	}
	return questionViews(db, questions)
}

func (s *QuestionService) GetQuestionByID(ctx context.Context, id string) (*QuestionView, error) {
	question, err := getByID[models.Question](ctx, s.db, id, "Question")
	if err != nil {
		return nil, err
	}
	return viewOne(s.db.WithContext(ctx), question, questionViews)
}

// CreateQuestion stores the question and adds it to its quiz's list. The
// category follows the quiz when the request leaves it out.
func (s *QuestionService) CreateQuestion(ctx context.Context, userID string, req *CreateQuestionRequest) (*models.Question, error) {
	options, err := toAnswerOptions(req.AnswerOptions)
	if err != nil {
		return nil, err
	}
	question := models.Question{
		QuestionText:  req.QuestionText,
		AnswerOptions: options,
		Quiz:          req.Quiz,
		Category:      req.Category,
		CreatedBy:     userID,
		Duration:      req.Duration,
	}
	if question.Duration == 0 {
		question.Duration = models.DefaultQuestionDuration
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken[models.Question](tx, "question_text", req.QuestionText, "")
		if err != nil {
			return err
		}
		if dup {
			return newError(ErrConflict, "A question with same name already exists!")
		}
		quiz, err := lockByID[models.Quiz](tx, req.Quiz, "Quiz")
		if err != nil {
			return err
		}
		if question.Category == "" {
			question.Category = quiz.Category
		}
		if err := tx.Create(&question).Error; err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		return addQuestionToQuiz(tx, quiz, question.ID)
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// UpdateQuestion applies a partial update. Moving to another quiz pulls the
// question from the quiz it is stored under.
func (s *QuestionService) UpdateQuestion(ctx context.Context, id, userID string, req *UpdateQuestionRequest) (*models.Question, error) {
	var question *models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if question, err = lockByID[models.Question](tx, id, "Question"); err != nil {
			return err
		}
		if req.QuestionText != nil {
			question.QuestionText = *req.QuestionText
		}
		if req.AnswerOptions != nil {
			if question.AnswerOptions, err = toAnswerOptions(*req.AnswerOptions); err != nil {
				return err
			}
		}
		if req.Duration != nil {
			question.Duration = *req.Duration
		}
		if req.Quiz != nil && *req.Quiz != question.Quiz {
			target, err := lockByID[models.Quiz](tx, *req.Quiz, "Quiz")
			if err != nil {
				return err
			}
			if err := pullQuestionFromQuiz(tx, question.Quiz, id); err != nil {
				return err
			}
			if err := addQuestionToQuiz(tx, target, id); err != nil {
				return err
			}
			question.Quiz = target.ID
			question.Category = target.Category
		}
		question.LastUpdatedBy = userID
		if err := tx.Save(question).Error; err != nil {
			return fmt.Errorf("failed to update question %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// DeleteQuestion removes the question and pulls it from its quiz.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := lockByID[models.Question](tx, id, "Question")
		if err != nil {
			return err
		}
		if err := pullQuestionFromQuiz(tx, question.Quiz, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Question{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete question %s: %w", id, err)
		}
		return nil
	})
}
