package services

import (
	"context"
	"fmt"
	"time"

	"quizblog/auth"
	"quizblog/logging"
	"quizblog/mail"
	"quizblog/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateContactRequest struct {
	ContactName string `json:"contact_name" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Message     string `json:"message" binding:"required,max=2000"`
}

type ReplyContactRequest struct {
	ReplyName string `json:"reply_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Message   string `json:"message" binding:"required"`
}

type BroadcastRequest struct {
	Title   string `json:"title" binding:"required,max=120"`
	Message string `json:"message" binding:"required"`
}

type ContactService struct {
	db       *gorm.DB
	notifier mail.Notifier
	events   EventPublisher
	siteURL  string
}

func NewContactService(db *gorm.DB, notifier mail.Notifier, events EventPublisher, siteURL string) *ContactService {
	return &ContactService{db: db, notifier: notifier, events: events, siteURL: siteURL}
}

func (s *ContactService) GetContacts(ctx context.Context) ([]models.Contact, error) {
	var out []models.Contact
	if err := s.db.WithContext(ctx).Order("contact_date DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return out, nil
}

func (s *ContactService) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	return getByID[models.Contact](ctx, s.db, id, "Contact")
}

// CreateContact stores the message, thanks the sender and alerts every admin.
func (s *ContactService) CreateContact(ctx context.Context, req *CreateContactRequest) (*models.Contact, error) {
	contact := models.Contact{
		ContactName: req.ContactName,
		Email:       req.Email,
		Message:     req.Message,
		Replies:     datatypes.JSONSlice[models.Reply]{},
	}
	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}

	s.notifier.Send(contact.Email, "Thank you for contacting Quiz Blog!", mail.TemplateContact, mail.Data{
		"name": contact.ContactName,
	})

	var admins []models.User
	if err := s.db.WithContext(ctx).Select("email").Where("role = ?", auth.RoleAdmin).Find(&admins).Error; err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to list admins for contact alert")
	}
	for _, a := range admins {
		s.notifier.Send(a.Email, "A new message, an admin is needed", mail.TemplateContactAdmin, mail.Data{
			"cEmail": contact.Email,
		})
	}

	publish(s.events, EventContactCreated, map[string]interface{}{
		"_id":          contact.ID,
		"contact_name": contact.ContactName,
		"email":        contact.Email,
	})
	return &contact, nil
}

// ReplyContact appends a reply to the conversation and mails it to the sender.
func (s *ContactService) ReplyContact(ctx context.Context, id string, req *ReplyContactRequest) (*models.Contact, error) {
	var contact *models.Contact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if contact, err = lockByID[models.Contact](tx, id, "Contact"); err != nil {
			return err
		}
		contact.Replies = append(contact.Replies, models.Reply{
			ReplyName: req.ReplyName,
			Email:     req.Email,
			Message:   req.Message,
			ReplyDate: time.Now().UTC(),
		})
		return tx.Model(contact).Update("replies", contact.Replies).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Send(contact.Email, "New reply", mail.TemplateReply, mail.Data{
		"name":     contact.ContactName,
		"question": contact.Message,
		"answer":   req.Message,
	})
	publish(s.events, EventContactReplied, map[string]interface{}{
		"_id":        contact.ID,
		"reply_name": req.ReplyName,
	})
	return contact, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Contact")
	}
	return nil
}

// SendBroadcast records the broadcast and mails it to subscribers and users.
func (s *ContactService) SendBroadcast(ctx context.Context, userID string, req *BroadcastRequest) (*models.Broadcast, int, error) {
	broadcast := models.Broadcast{Title: req.Title, Message: req.Message, SentBy: userID}
	if err := s.db.WithContext(ctx).Create(&broadcast).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to save broadcast: %w", err)
	}
	recipients, err := audience(ctx, s.db)
	if err != nil {
		return nil, 0, err
	}
	for _, r := range recipients {
		s.notifier.Send(r.Email, broadcast.Title, mail.TemplateBroadcast, mail.Data{
			"name":            r.Name,
			"message":         broadcast.Message,
			"unsubscribeLink": s.siteURL + "/unsubscribe",
		})
	}
	publish(s.events, EventBroadcastSent, map[string]interface{}{
		"_id":        broadcast.ID,
		"title":      broadcast.Title,
		"recipients": len(recipients),
	})
	return &broadcast, len(recipients), nil
}

func (s *ContactService) GetBroadcasts(ctx context.Context) ([]models.Broadcast, error) {
	var out []models.Broadcast
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	return out, nil
}
