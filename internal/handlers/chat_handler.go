// File: internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-yasmin/internal/domain"
	"github.com/iyunix/go-yasmin/internal/render"
	"github.com/iyunix/go-yasmin/internal/services"
	chatservice "github.com/iyunix/go-yasmin/internal/services/chat"
)

const maxBodyBytes = 1 << 20

type ChatHandler struct {
	ChatService *services.ChatService
	Markdown    *render.Markdown
}

func NewChatHandler(cs *services.ChatService, md *render.Markdown) (*ChatHandler, error) {
	if cs == nil {
		return nil, errors.New("chat service is required")
	}
	if md == nil {
		md = render.NewMarkdown()
	}
	return &ChatHandler{ChatService: cs, Markdown: md}, nil
}

type chatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversation_id"`
	Model          string   `json:"model"`
	Temperature    *float32 `json:"temperature"`
	MaxTokens      *int     `json:"max_tokens"`
}

type regenerateRequest struct {
	ConversationID string                        `json:"conversation_id"`
	Messages       []chatservice.TranscriptEntry `json:"messages"`
	Model          string                        `json:"model"`
	Temperature    *float32                      `json:"temperature"`
	MaxTokens      *int                          `json:"max_tokens"`
}

type turnResponse struct {
	Reply          string `json:"reply"`
	ReplyHTML      string `json:"reply_html"`
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title,omitempty"`
	Offline        bool   `json:"offline"`
	Error          string `json:"error,omitempty"`
	APISource      string `json:"api_source"`
	Model          string `json:"model,omitempty"`
	MessageID      uint   `json:"message_id,omitempty"`
	Warning        string `json:"warning,omitempty"`
}

type conversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageView struct {
	ID          uint      `json:"id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type conversationDetail struct {
	conversationSummary
	Messages []messageView `json:"messages"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.ChatService.SendMessage(r.Context(), chatservice.TurnRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Params: chatservice.GenerationParams{
			Model:       req.Model,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.turnResponse(result))
}

// Regenerate handles POST /api/regenerate.
func (h *ChatHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.ChatService.Regenerate(r.Context(), chatservice.RegenerateRequest{
		ConversationID: req.ConversationID,
		Transcript:     req.Messages,
		Params: chatservice.GenerationParams{
			Model:       req.Model,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.turnResponse(result))
}

// ListConversations handles GET /api/conversations, most recent first.
// With ?limit=N (and optional &offset=M) it returns one page plus the total.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("limit") == "" && q.Get("offset") == "" {
		convs, err := h.ChatService.ListConversations(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": summarizeAll(convs)})
		return
	}

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		writeError(w, "limit must be an integer", http.StatusBadRequest)
		return
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			writeError(w, "offset must be an integer", http.StatusBadRequest)
			return
		}
	}

	convs, total, err := h.ChatService.ListConversationsPage(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": summarizeAll(convs),
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetConversation handles GET /api/conversations/{id}.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.ChatService.GetConversation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	detail := conversationDetail{
		conversationSummary: summarize(*conv),
		Messages:            make([]messageView, 0, len(conv.Messages)),
	}
	for _, m := range conv.Messages {
		view := messageView{ID: m.ID, Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
		if m.Role == domain.RoleAssistant {
			view.ContentHTML = h.Markdown.ToHTML(m.Content)
		}
		detail.Messages = append(detail.Messages, view)
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteConversation handles DELETE /api/conversations/{id}.
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.ChatService.DeleteConversation(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Status handles GET /api/status.
func (h *ChatHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ChatService.Status())
}

func (h *ChatHandler) turnResponse(res *chatservice.TurnResult) turnResponse {
	return turnResponse{
		Reply:          res.Reply,
		ReplyHTML:      h.Markdown.ToHTML(res.Reply),
		ConversationID: res.ConversationID,
		Title:          res.Title,
		Offline:        res.Offline,
		Error:          res.Error,
		APISource:      res.Source,
		Model:          res.Model,
		MessageID:      res.MessageID,
		Warning:        res.Warning,
	}
}

func summarize(c domain.Conversation) conversationSummary {
	return conversationSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func summarizeAll(convs []domain.Conversation) []conversationSummary {
	out := make([]conversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, summarize(c))
	}
	return out
}

// decodeBody reads a JSON body into dst and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, msg, http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError maps typed chat errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var ce *chatservice.ChatError
	if !errors.As(err, &ce) {
		log.Printf("[ChatHandler] unexpected error: %v", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	switch ce.Type {
	case chatservice.ErrTypeValidation:
		writeError(w, ce.Message, http.StatusBadRequest)
	case chatservice.ErrTypeNotFound:
		writeError(w, "Conversation not found", http.StatusNotFound)
	case chatservice.ErrTypeExhausted:
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":           ce.Message,
			"conversation_id": ce.ConversationID,
		})
	default:
		log.Printf("[ChatHandler] %v", err)
		writeError(w, "Could not save the conversation", http.StatusInternalServerError)
	}
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
