package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quizblog/auth"
	"quizblog/logging"
	"quizblog/mail"
	"quizblog/models"

	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=4,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=4,max=72"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type AuthService struct {
	db       *gorm.DB
	tokens   *auth.TokenCodec
	resets   *ResetTokenStore
	notifier mail.Notifier
	siteURL  string
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenCodec, resets *ResetTokenStore, notifier mail.Notifier, siteURL string) *AuthService {
	return &AuthService{db: db, tokens: tokens, resets: resets, notifier: notifier, siteURL: siteURL}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:     req.Name,
		Email:    normalizeEmail(req.Email),
		Password: hash,
		Role:     auth.RoleVisitor,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken[models.User](tx, "email", user.Email, "")
		if err != nil {
			return err
		}
		if dup {
			return conflict("User")
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Send(user.Email, "Welcome to Quiz Blog!", mail.TemplateWelcome, mail.Data{"name": user.Name})
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User registered")
	return s.session(&user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(req.Email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrInvalidCredentials, "Incorrect E-mail or Password!")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, newError(ErrInvalidCredentials, "Incorrect E-mail or Password!")
	}
	return s.session(&user)
}

func (s *AuthService) session(user *models.User) (*AuthResponse, error) {
	token, exp, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, ExpiresAt: exp, User: user}, nil
}

// CurrentUser loads the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	return getByID[models.User](ctx, s.db, id, "User")
}

// ForgotPassword issues a reset token, stores its hash and mails the link.
// Any earlier token of the same user is replaced.
func (s *AuthService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(req.Email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "User does not exist")
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := auth.RandomToken(32)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(token)
	if err != nil {
		return err
	}
	if err := s.resets.Save(ctx, user.ID, hash); err != nil {
		return err
	}

	link := s.siteURL + "/reset-password?" + url.Values{"token": {token}, "id": {user.ID}}.Encode()
	s.notifier.Send(user.Email, "Password Reset Request", mail.TemplateRequestResetPassword, mail.Data{
		"name": user.Name,
		"link": link,
	})
	return nil
}

// ResetPassword checks the token against the stored hash, sets the new
// password and consumes the token.
func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	stored, err := s.resets.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return newError(ErrInvalidResetToken, "Invalid or expired password reset token")
		}
		return err
	}
	if !auth.CheckPassword(stored, req.Token) {
		return newError(ErrInvalidResetToken, "Invalid or expired password reset token")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("User")
			}
			return err
		}
		return tx.Model(&user).Update("password", hash).Error
	})
	if err != nil {
		return err
	}
	if err := s.resets.Delete(ctx, req.UserID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", req.UserID).Msg("Failed to delete used reset token")
	}

	s.notifier.Send(user.Email, "Password Reset Successfully", mail.TemplateResetPassword, mail.Data{"name": user.Name})
	return nil
}
