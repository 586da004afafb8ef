package services

import (
	"context"
	"fmt"

	"quizblog/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CategoryService struct {
	db      *gorm.DB
	cascade *Cascade
}

func NewCategoryService(db *gorm.DB, cascade *Cascade) *CategoryService {
	return &CategoryService{db: db, cascade: cascade}
}

type CreateCategoryRequest struct {
	Title       string `json:"title" binding:"required,max=80"`
	Description string `json:"description" binding:"required"`
}

type UpdateCategoryRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=80"`
	Description *string `json:"description" binding:"omitempty,min=1"`
}

// ListCategories returns every category, newest first, with its quizzes.
func (s *CategoryService) ListCategories(ctx context.Context) ([]CategoryView, error) {
	db := s.db.WithContext(ctx)
	var categories []models.Category
	if err := db.Order("creation_date DESC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categoryViews(db, categories)
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*CategoryView, error) {
	category, err := getByID[models.Category](ctx, s.db, id, "Category")
	if err != nil {
		return nil, err
	}
	return viewOne(s.db.WithContext(ctx), category, categoryViews)
}

func (s *CategoryService) CreateCategory(ctx context.Context, userID string, req *CreateCategoryRequest) (*models.Category, error) {
	category := models.Category{
		Title:       req.Title,
		Description: req.Description,
		Quizes:      datatypes.JSONSlice[string]{},
		CreatedBy:   userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken[models.Category](tx, "title", req.Title, "")
		if err != nil {
			return err
		}
		if dup {
			return conflict("Category")
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id, userID string, req *UpdateCategoryRequest) (*models.Category, error) {
	var category *models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if category, err = lockByID[models.Category](tx, id, "Category"); err != nil {
			return err
		}
		if req.Title != nil && *req.Title != category.Title {
			dup, err := taken[models.Category](tx, "title", *req.Title, id)
			if err != nil {
				return err
			}
			if dup {
				return conflict("Category")
			}
			category.Title = *req.Title
		}
		if req.Description != nil {
			category.Description = *req.Description
		}
		category.LastUpdatedBy = userID
		if err := tx.Save(category).Error; err != nil {
			return fmt.Errorf("failed to update category %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	return s.cascade.DeleteCategory(ctx, id)
}
