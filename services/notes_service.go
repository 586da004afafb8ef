package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"quizblog/logging"
	"quizblog/models"
	"quizblog/storage"

	"gorm.io/gorm"
)

// ErrStorageUnavailable is returned for uploads when no object store is configured.
var ErrStorageUnavailable = errors.New("notes storage is not configured")

type CreateNotesRequest struct {
	Title       string `form:"title" binding:"required,max=80"`
	Description string `form:"description" binding:"required"`
	Chapter     string `form:"chapter" binding:"required"`
}

type UpdateNotesRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=80"`
	Description *string `json:"description" binding:"omitempty,min=1"`
}

type CreateDownloadRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// Upload is a notes file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type NotesService struct {
	db      *gorm.DB
	files   storage.ObjectStore
	cascade *Cascade
}

func NewNotesService(db *gorm.DB, files storage.ObjectStore, cascade *Cascade) *NotesService {
	return &NotesService{db: db, files: files, cascade: cascade}
}

// GetNotes lists every notes record, oldest first.
func (s *NotesService) GetNotes(ctx context.Context) ([]NotesView, error) {
	db := s.db.WithContext(ctx)
	var out []models.Notes
	if err := db.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notesViews(db, out)
}

func (s *NotesService) GetNotesByChapter(ctx context.Context, chapterID string) ([]NotesView, error) {
	db := s.db.WithContext(ctx)
	var out []models.Notes
	err := db.Where("chapter = ?", chapterID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes of chapter %s: %w", chapterID, err)
	}
	return notesViews(db, out)
}

func (s *NotesService) GetNotesByID(ctx context.Context, id string) (*NotesView, error) {
	notes, err := getByID[models.Notes](ctx, s.db, id, "Notes")
	if err != nil {
		return nil, err
	}
	return viewOne(s.db.WithContext(ctx), notes, notesViews)
}

// CreateNotes uploads the file and records it under its chapter. The stored
// object is removed again if the record cannot be written.
func (s *NotesService) CreateNotes(ctx context.Context, userID string, req *CreateNotesRequest, file Upload) (*models.Notes, error) {
	if s.files == nil {
		return nil, ErrStorageUnavailable
	}
	if file.Size > storage.MaxUploadSize {
		return nil, newError(ErrValidation, "File is too large, the limit is 50 MB")
	}
	if !storage.AllowedContentType(file.ContentType) {
		return nil, newError(ErrValidation, "Only pdf, doc, docx, ppt and pptx files are allowed")
	}
	chapter, err := getByID[models.Chapter](ctx, s.db, req.Chapter, "Chapter")
	if err != nil {
		return nil, err
	}
	dup, err := taken[models.Notes](s.db.WithContext(ctx), "title", req.Title, "")
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, conflict("Notes")
	}

	key := storage.ObjectKey(file.Filename)
	location, err := s.files.Put(ctx, key, file.ContentType, file.Body, file.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload notes file: %w", err)
	}

	notes := models.Notes{
		Title:          req.Title,
		Description:    req.Description,
		NotesFile:      location,
		Chapter:        chapter.ID,
		Course:         chapter.Course,
		CourseCategory: chapter.CourseCategory,
		UploadedBy:     userID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree[models.Notes](tx, req.Title, "", "Notes"); err != nil {
			return err
		}
		return tx.Create(&notes).Error
	})
	if err != nil {
		if derr := s.files.Delete(context.WithoutCancel(ctx), key); derr != nil {
			logging.Ctx(ctx).Warn().Err(derr).Str("key", key).Msg("Failed to remove orphaned notes file")
		}
		return nil, err
	}
	return &notes, nil
}

func (s *NotesService) UpdateNotes(ctx context.Context, id string, req *UpdateNotesRequest) (*models.Notes, error) {
	var notes *models.Notes
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if notes, err = lockByID[models.Notes](tx, id, "Notes"); err != nil {
			return err
		}
		if err := applyTitled[models.Notes](tx, id, "Notes", &notes.Title, &notes.Description, req.Title, req.Description); err != nil {
			return err
		}
		return tx.Save(notes).Error
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *NotesService) DeleteNotes(ctx context.Context, id string) error {
	return s.cascade.DeleteNotes(ctx, id)
}

func (s *NotesService) GetDownloads(ctx context.Context) ([]DownloadView, error) {
	db := s.db.WithContext(ctx)
	var out []models.Download
	if err := db.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	return downloadViews(db, out)
}

// RecordDownload logs that a user fetched a notes file. The chapter, course
// and category are copied from the notes record.
func (s *NotesService) RecordDownload(ctx context.Context, userID string, req *CreateDownloadRequest) (*models.Download, error) {
	notes, err := getByID[models.Notes](ctx, s.db, req.Notes, "Notes")
	if err != nil {
		return nil, err
	}
	download := models.Download{
		Notes:          notes.ID,
		Chapter:        notes.Chapter,
		Course:         notes.Course,
		CourseCategory: notes.CourseCategory,
		DownloadedBy:   userID,
	}
	if err := s.db.WithContext(ctx).Create(&download).Error; err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}
	return &download, nil
}

func (s *NotesService) DeleteDownload(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Download{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete download %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Download")
	}
	return nil
}
