package services

import (
	"context"
	"fmt"
	"strings"

	"quizblog/mail"
	"quizblog/models"

	"gorm.io/gorm"
)

type SubscribeRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type SubscriberService struct {
	db       *gorm.DB
	notifier mail.Notifier
	siteURL  string
}

func NewSubscriberService(db *gorm.DB, notifier mail.Notifier, siteURL string) *SubscriberService {
	return &SubscriberService{db: db, notifier: notifier, siteURL: siteURL}
}

func (s *SubscriberService) GetSubscribers(ctx context.Context) ([]models.SubscribedUser, error) {
	var out []models.SubscribedUser
	if err := s.db.WithContext(ctx).Order("subscription_date DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return out, nil
}

func (s *SubscriberService) GetSubscriber(ctx context.Context, id string) (*models.SubscribedUser, error) {
	return getByID[models.SubscribedUser](ctx, s.db, id, "Subscriber")
}

func (s *SubscriberService) Subscribe(ctx context.Context, req *SubscribeRequest) (*models.SubscribedUser, error) {
	sub := models.SubscribedUser{Name: req.Name, Email: strings.ToLower(strings.TrimSpace(req.Email))}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := taken[models.SubscribedUser](tx, "email", sub.Email, "")
		if err != nil {
			return err
		}
		if dup {
			return newError(ErrConflict, "You had already subscribed!")
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Send(sub.Email, "Thank you for subscribing to Quiz Blog!", mail.TemplateSubscribe, mail.Data{
		"name":            sub.Name,
		"unsubscribeLink": s.siteURL + "/unsubscribe",
	})
	return &sub, nil
}

func (s *SubscriberService) Unsubscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res := s.db.WithContext(ctx).Delete(&models.SubscribedUser{}, "email = ?", email)
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Subscriber")
	}
	return nil
}
