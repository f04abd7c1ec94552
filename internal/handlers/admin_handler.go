// File: internal/handlers/admin_handler.go
package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/iyunix/go-yasmin/internal/middleware"
	"github.com/iyunix/go-yasmin/internal/services"
)

const defaultErrorFeedLimit = 50

type AdminHandler struct {
	chatService *services.ChatService
}

func NewAdminHandler(chatService *services.ChatService) *AdminHandler {
	return &AdminHandler{chatService: chatService}
}

type errorEntry struct {
	ID             uint      `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecentErrors handles GET /api/admin/errors?limit=N, newest first.
func (h *AdminHandler) RecentErrors(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultErrorFeedLimit
	}

	msgs, err := h.chatService.RecentErrors(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	operator, _ := middleware.OperatorFromContext(r.Context())
	log.Printf("[AdminHandler] operator %q read %d error markers", operator, len(msgs))

	out := make([]errorEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, errorEntry{ID: m.ID, ConversationID: m.ConversationID, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"errors": out,
		"limit":  limit,
	})
}
