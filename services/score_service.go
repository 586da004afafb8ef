package services

import (
	"context"
	"errors"
	"fmt"

	"quizblog/models"

	"gorm.io/gorm"
)

const ScoresPageSize = 20

type CreateScoreRequest struct {
	ID       string `json:"id" binding:"required"`
	Marks    int    `json:"marks" binding:"min=0"`
	OutOf    int    `json:"out_of" binding:"required,min=1"`
	Category string `json:"category" binding:"required"`
	Quiz     string `json:"quiz" binding:"required"`
	Review   string `json:"review"`
}

type ScorePage struct {
	TotalPages int         `json:"totalPages"`
	Scores     []ScoreView `json:"scores"`
}

type ScoreService struct {
	db *gorm.DB
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{db: db}
}

func (s *ScoreService) GetScores(ctx context.Context, pageNo int) (*ScorePage, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Score{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count scores: %w", err)
	}
	var scores []models.Score
	q := PageNo(pageNo, ScoresPageSize).apply(db.Order("test_date DESC"))
	if err := q.Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	views, err := scoreViews(db, scores)
	if err != nil {
		return nil, err
	}
	return &ScorePage{TotalPages: totalPages(count, ScoresPageSize), Scores: views}, nil
}

// GetScore looks a score up by its client-side identifier.
func (s *ScoreService) GetScore(ctx context.Context, scoreID string) (*ScoreView, error) {
	db := s.db.WithContext(ctx)
	var score models.Score
	err := db.First(&score, "score_id = ?", scoreID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Score")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load score %s: %w", scoreID, err)
	}
	return viewOne(db, &score, scoreViews)
}

func (s *ScoreService) GetScoresByTaker(ctx context.Context, userID string) ([]ScoreView, error) {
	db := s.db.WithContext(ctx)
	var scores []models.Score
	err := db.Where("taken_by = ?", userID).
		Order("test_date DESC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scores of %s: %w", userID, err)
	}
	return scoreViews(db, scores)
}

func (s *ScoreService) CreateScore(ctx context.Context, userID string, req *CreateScoreRequest) (*models.Score, error) {
	if req.Marks > req.OutOf {
		return nil, newError(ErrValidation, "Marks cannot exceed the total")
	}
	score := models.Score{
		ScoreID:  req.ID,
		Marks:    req.Marks,
		OutOf:    req.OutOf,
		Category: req.Category,
		Quiz:     req.Quiz,
		Review:   req.Review,
		TakenBy:  userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken[models.Score](tx, "score_id", req.ID, "")
		if err != nil {
			return err
		}
		if dup {
			return conflict("Score")
		}
		return tx.Create(&score).Error
	})
	if err != nil {
		return nil, err
	}
	return &score, nil
}

func (s *ScoreService) DeleteScore(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Score{}, "id = ? OR score_id = ?", id, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete score %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Score")
	}
	return nil
}
