package services

import (
	"context"
	"fmt"
	"strings"

	"quizblog/auth"
	"quizblog/models"

	"gorm.io/gorm"
)

const UsersPageSize = 8

type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,role"`
}

type UserPage struct {
	TotalPages int           `json:"totalPages"`
	Users      []models.User `json:"users"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUsers lists users newest first, UsersPageSize at a time. Page 0 lists all.
func (s *UserService) GetUsers(ctx context.Context, pageNo int) (*UserPage, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	q := PageNo(pageNo, UsersPageSize).apply(db.Order("register_date DESC"))
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserPage{TotalPages: totalPages(count, UsersPageSize), Users: users}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return getByID[models.User](ctx, s.db, id, "User")
}

func (s *UserService) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = lockByID[models.User](tx, id, "User"); err != nil {
			return err
		}
		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if email != user.Email {
				dup, err := taken[models.User](tx, "email", email, id)
				if err != nil {
					return err
				}
				if dup {
					return newError(ErrConflict, "Email is already in use")
				}
				user.Email = email
			}
		}
		if req.Role != nil {
			user.Role = auth.Role(*req.Role)
		}
		return tx.Save(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("User")
	}
	return nil
}
