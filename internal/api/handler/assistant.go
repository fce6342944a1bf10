package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GulovM/ToDo-Master/internal/api/middleware"
	"github.com/GulovM/ToDo-Master/internal/api/response"
	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/GulovM/ToDo-Master/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AssistantHandler handles AI assistant endpoints
type AssistantHandler struct {
	assistantService *service.AssistantService
	debug            bool
}

// NewAssistantHandler creates a new assistant handler. With debug enabled,
// upstream provider errors are returned verbatim instead of the generic
// unavailable message.
func NewAssistantHandler(assistantService *service.AssistantService, debug bool) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		debug:            debug,
	}
}

// Assist handles one conversational turn
func (h *AssistantHandler) Assist(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if input.Message == "" && !input.Confirm {
		response.BadRequest(w, "message is required")
		return
	}

	resp, err := h.assistantService.Assist(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "chat not found")
		case errors.Is(err, domain.ErrAIUnavailable):
			if h.debug {
				response.ServiceUnavailable(w, err.Error())
			} else {
				response.ServiceUnavailable(w, "AI service unavailable")
			}
		default:
			response.InternalError(w, "failed to process request")
		}
		return
	}

	response.OK(w, resp)
}

// ListChats returns the caller's chat sessions, most recent first
func (h *AssistantHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessions, err := h.assistantService.ListChats(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list chats")
		return
	}
	if sessions == nil {
		sessions = []domain.ChatSession{}
	}

	response.OK(w, sessions)
}

// ChatMessages returns a chat transcript oldest-first
func (h *AssistantHandler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		response.BadRequest(w, "invalid chat ID")
		return
	}

	messages, err := h.assistantService.ChatMessages(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "chat not found")
			return
		}
		response.InternalError(w, "failed to load messages")
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	response.OK(w, messages)
}
