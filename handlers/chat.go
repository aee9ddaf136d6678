package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/services"
)

// ChatHandler serves chat lookup and creation.
type ChatHandler struct {
	chatService services.ChatService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListForUser godoc
// GET /api/chats/user/{userId}
func (h *ChatHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	chats, err := h.chatService.ListForUser(r.Context(), user.ID, chi.URLParam(r, "userId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, chats)
}

// ProjectChat godoc
// GET /api/chats/project/{projectId}
//
// The project's chat is created on first access; the caller becomes a
// member.
func (h *ChatHandler) ProjectChat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	chat, err := h.chatService.ProjectChat(r.Context(), chi.URLParam(r, "projectId"), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, chat)
}

// Create godoc
// POST /api/chats
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chat, err := h.chatService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, chat)
}
