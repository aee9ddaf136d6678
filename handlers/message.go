package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/services"
)

// multipartOverhead leaves room for the text field and part headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

// MessageHandler serves chat history and message creation.
type MessageHandler struct {
	messageService services.MessageService
	maxUploadSize  int64
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messageService services.MessageService, maxUploadSize int64) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		maxUploadSize:  maxUploadSize,
	}
}

// List godoc
// GET /api/chats/{chatId}/messages?before=&limit=
//
// Returns one page, oldest first. before is a message id; limit is
// clamped by the service.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	q := r.URL.Query()
	limit := 0
	if l := q.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = parsed
	}

	messages, err := h.messageService.List(r.Context(), chi.URLParam(r, "chatId"), user.ID, q.Get("before"), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Create godoc
// POST /api/chats/{chatId}/messages
//
// Multipart with a "content" field and an optional "file" part. A JSON
// body {"content": "..."} is accepted for text-only messages.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}
	chatID := chi.URLParam(r, "chatId")

	if !isMultipart(r.Header.Get("Content-Type")) {
		var body struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		h.create(w, r, chatID, user.ID, &models.CreateMessageRequest{Content: body.Content}, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := &models.CreateMessageRequest{Content: r.FormValue("content")}

	var upload *services.UploadInput
	if headers := r.MultipartForm.File["file"]; len(headers) > 0 {
		fh := headers[0]
		file, err := fh.Open()
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to read file")
			return
		}
		defer file.Close()

		req.HasFile = true
		upload = uploadInput(file, fh)
	}

	h.create(w, r, chatID, user.ID, req, upload)
}

func (h *MessageHandler) create(w http.ResponseWriter, r *http.Request, chatID, userID string, req *models.CreateMessageRequest, file *services.UploadInput) {
	message, err := h.messageService.Create(r.Context(), chatID, userID, req, file)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, message)
}

func uploadInput(file multipart.File, fh *multipart.FileHeader) *services.UploadInput {
	return &services.UploadInput{
		Reader:      file,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
}

func isMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "multipart/form-data"
}
