package chat

import (
	"encoding/json"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

// Command types persisted with every exchange.
const (
	CommandStatus  = "status"
	CommandPlan    = "plan"
	CommandSwap    = "swap"
	CommandAdd     = "add"
	CommandProfile = "profile"
	CommandHelp    = "help"
	CommandChat    = "chat"
	CommandError   = "error"
)

type ChatMessageDTO struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"user_id"`
	Message     string         `json:"message"`
	Response    string         `json:"response"`
	CommandType string         `json:"command_type"`
	ContextData map[string]any `json:"context_data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SendMessageRequest: тело POST /v1/chat и кадр websocket.
type SendMessageRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Reply: ответ командного слоя.
type Reply struct {
	MessageID   uuid.UUID `json:"message_id"`
	UserID      string    `json:"user_id"`
	Response    string    `json:"response"`
	CommandType string    `json:"command_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListMessagesResponse struct {
	Messages []ChatMessageDTO `json:"messages"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func messageToDTO(msg storage.ChatMessage) ChatMessageDTO {
	dto := ChatMessageDTO{
		ID:          msg.ID,
		UserID:      msg.UserID,
		Message:     msg.Message,
		Response:    msg.Response,
		CommandType: msg.CommandType,
		CreatedAt:   msg.CreatedAt,
	}
	if len(msg.ContextData) > 0 {
		payload := make(map[string]any)
		if err := json.Unmarshal(msg.ContextData, &payload); err == nil {
			dto.ContextData = payload
		}
	}
	return dto
}
