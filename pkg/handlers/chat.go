package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/services"
)

// maxChatBodyBytes caps the request body; chat messages are short.
const maxChatBodyBytes = 64 * 1024

// ChatMessageRequest for POST /api/chat.
type ChatMessageRequest struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// ChatMessageResponse for POST /api/chat.
type ChatMessageResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	chatService services.ChatService
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, logger: logger}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.SendMessage)
}

// SendMessage handles POST /api/chat.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_message", "Message is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.chatService.SendMessage(r.Context(), &services.ChatRequest{
		Message:   req.Message,
		UserID:    req.UserID,
		UserName:  req.UserName,
		IPAddress: clientIP(r),
	})
	if err != nil {
		h.logger.Error("Chat message failed",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "chat_failed", "Die Anfrage konnte nicht verarbeitet werden."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ChatMessageResponse{Reply: result.Reply, Model: result.Model}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// clientIP extracts the caller address, honoring X-Forwarded-For from
// the reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
