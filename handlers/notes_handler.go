package handlers

import (
	"errors"
	"net/http"

	"quizblog/middleware"
	"quizblog/services"
	"quizblog/storage"

	"github.com/gin-gonic/gin"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

type NotesHandler struct {
	notesService *services.NotesService
}

func NewNotesHandler(notesService *services.NotesService) *NotesHandler {
	return &NotesHandler{notesService: notesService}
}

func (h *NotesHandler) GetNotes(c *gin.Context) {
	notes, err := h.notesService.GetNotes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NotesHandler) GetNotesByChapter(c *gin.Context) {
	notes, err := h.notesService.GetNotesByChapter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NotesHandler) GetNotesByID(c *gin.Context) {
	notes, err := h.notesService.GetNotesByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// CreateNotes accepts a multipart form with the notes fields and a notes_file part.
func (h *NotesHandler) CreateNotes(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadSize+uploadOverhead)

	var req services.CreateNotesRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.Abort(c, http.StatusBadRequest, "VALIDATION_ERROR", "File is too large, the limit is 50 MB")
			return
		}
		respondBindError(c, err)
		return
	}

	fh, err := c.FormFile("notes_file")
	if err != nil {
		middleware.Abort(c, http.StatusBadRequest, "VALIDATION_ERROR", "notes_file is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	notes, err := h.notesService.CreateNotes(c.Request.Context(), currentUserID(c), &req, services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, notes)
}

func (h *NotesHandler) UpdateNotes(c *gin.Context) {
	var req services.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	notes, err := h.notesService.UpdateNotes(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NotesHandler) DeleteNotes(c *gin.Context) {
	if err := h.notesService.DeleteNotes(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Notes deleted"})
}

func (h *NotesHandler) GetDownloads(c *gin.Context) {
	downloads, err := h.notesService.GetDownloads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, downloads)
}

func (h *NotesHandler) CreateDownload(c *gin.Context) {
	var req services.CreateDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	download, err := h.notesService.RecordDownload(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, download)
}

func (h *NotesHandler) DeleteDownload(c *gin.Context) {
	if err := h.notesService.DeleteDownload(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Download deleted"})
}
