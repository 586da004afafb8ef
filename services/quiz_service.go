package services

import (
	"context"
	"fmt"

	"quizblog/logging"
	"quizblog/mail"
	"quizblog/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizService struct {
	db       *gorm.DB
	cascade  *Cascade
	notifier mail.Notifier
	events   EventPublisher
	siteURL  string
}

func NewQuizService(db *gorm.DB, cascade *Cascade, notifier mail.Notifier, events EventPublisher, siteURL string) *QuizService {
	return &QuizService{db: db, cascade: cascade, notifier: notifier, events: events, siteURL: siteURL}
}

type CreateQuizRequest struct {
	Title       string `json:"title" binding:"required,max=80"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
}

type UpdateQuizRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=80"`
	Description *string `json:"description" binding:"omitempty,min=1"`
	Category    *string `json:"category" binding:"omitempty,min=1"`
}

type NotifyQuizRequest struct {
	QuizID    string `json:"quizId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Category  string `json:"category" binding:"required"`
	CreatedBy string `json:"created_by"`
}

func (s *QuizService) GetQuizzes(ctx context.Context, page Page) ([]QuizView, error) {
	db := s.db.WithContext(ctx)
	var quizzes []models.Quiz
	if err := page.apply(db.Order("creation_date DESC")).Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizViews(db, quizzes)
}

func (s *QuizService) GetQuizzesByCategory(ctx context.Context, categoryID string) ([]QuizView, error) {
	db := s.db.WithContext(ctx)
	var quizzes []models.Quiz
	err := db.Where("category = ?", categoryID).
		Order("creation_date DESC").
		Find(&quizzes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes of category %s: %w", categoryID, err)
	}
	return quizViews(db, quizzes)
}

// GetQuizByID returns the quiz with its category and questions, in quiz order.
func (s *QuizService) GetQuizByID(ctx context.Context, id string) (*QuizView, error) {
	quiz, err := getByID[models.Quiz](ctx, s.db, id, "Quiz")
	if err != nil {
		return nil, err
	}
	return viewOne(s.db.WithContext(ctx), quiz, quizViews)
}

// CreateQuiz stores the quiz and appends it to its category in one transaction.
func (s *QuizService) CreateQuiz(ctx context.Context, userID string, req *CreateQuizRequest) (*models.Quiz, error) {
	quiz := models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Questions:   datatypes.JSONSlice[string]{},
		CreatedBy:   userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken[models.Quiz](tx, "title", req.Title, "")
		if err != nil {
			return err
		}
		if dup {
			return conflict("Quiz")
		}
		if err := tx.Create(&quiz).Error; err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		return addQuizToCategory(tx, req.Category, quiz.ID)
	})
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// UpdateQuiz applies a partial update. A category change moves the quiz, and
// its questions, from the stored category to the new one.
func (s *QuizService) UpdateQuiz(ctx context.Context, id, userID string, req *UpdateQuizRequest) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if quiz, err = lockByID[models.Quiz](tx, id, "Quiz"); err != nil {
			return err
		}
		if req.Title != nil && *req.Title != quiz.Title {
			dup, err := taken[models.Quiz](tx, "title", *req.Title, id)
			if err != nil {
				return err
			}
			if dup {
				return conflict("Quiz")
			}
			quiz.Title = *req.Title
		}
		if req.Description != nil {
			quiz.Description = *req.Description
		}
		if req.Category != nil && *req.Category != quiz.Category {
			if err := addQuizToCategory(tx, *req.Category, id); err != nil {
				return err
			}
			if err := pullQuizFromCategory(tx, quiz.Category, id); err != nil {
				return err
			}
			if err := tx.Model(&models.Question{}).Where("quiz = ?", id).
				Update("category", *req.Category).Error; err != nil {
				return fmt.Errorf("failed to move questions of quiz %s: %w", id, err)
			}
			quiz.Category = *req.Category
		}
		quiz.LastUpdatedBy = userID
		if err := tx.Save(quiz).Error; err != nil {
			return fmt.Errorf("failed to update quiz %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) DeleteQuiz(ctx context.Context, id string) error {
	return s.cascade.DeleteQuiz(ctx, id)
}

// NotifyNewQuiz mails every subscriber and registered user about a published
// quiz and returns the number of recipients.
func (s *QuizService) NotifyNewQuiz(ctx context.Context, req *NotifyQuizRequest) (int, error) {
	recipients, err := audience(ctx, s.db)
	if err != nil {
		return 0, err
	}
	subject := fmt.Sprintf("Updates!! New %s quiz that may interest you", req.Category)
	author := req.CreatedBy
	if author == "" {
		author = "Quiz Blog"
	}
	for _, r := range recipients {
		s.notifier.Send(r.Email, subject, mail.TemplateNewQuiz, mail.Data{
			"name":            r.Name,
			"newQuiz":         req.Title,
			"author":          author,
			"quizesLink":      s.siteURL + "/view-quiz/" + req.QuizID,
			"unsubscribeLink": s.siteURL + "/unsubscribe",
		})
	}
	logging.Ctx(ctx).Info().Str("quiz_id", req.QuizID).Int("recipients", len(recipients)).Msg("New quiz notification queued")
	publish(s.events, EventQuizPublished, map[string]interface{}{
		"quizId":     req.QuizID,
		"title":      req.Title,
		"category":   req.Category,
		"recipients": len(recipients),
	})
	return len(recipients), nil
}

type recipient struct {
	Name  string
	Email string
}

// audience returns subscribers and registered users, one entry per address.
func audience(ctx context.Context, db *gorm.DB) ([]recipient, error) {
	var subs []models.SubscribedUser
	if err := db.WithContext(ctx).Select("name", "email").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	var users []models.User
	if err := db.WithContext(ctx).Select("name", "email").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	seen := make(map[string]bool, len(subs)+len(users))
	out := make([]recipient, 0, len(subs)+len(users))
	add := func(name, email string) {
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		out = append(out, recipient{Name: name, Email: email})
	}
	for _, s := range subs {
		add(s.Name, s.Email)
	}
	for _, u := range users {
		add(u.Name, u.Email)
	}
	return out, nil
}
