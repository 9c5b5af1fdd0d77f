package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Типы кадров, которые сервер отправляет в websocket.
const (
	frameReply = "reply"
	frameError = "error"
)

type wsFrame struct {
	Type    string `json:"type"`
	Data    *Reply `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// HandleWebSocket обрабатывает GET /v1/chat/ws?user_id=
// Клиент шлёт {"message": "..."}; каждое сообщение проходит тот же путь, что и POST /v1/chat.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUserID(r, r.URL.Query().Get("user_id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN chat: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WARN chat: websocket read for %s: %v", userID, err)
			}
			return
		}

		var req SendMessageRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			h.writeFrame(conn, wsFrame{Type: frameError, Message: "Invalid message format"})
			continue
		}

		reply, err := h.service.HandleMessage(r.Context(), userID, req.Message)
		if err != nil {
			h.writeFrame(conn, wsFrame{Type: frameError, Message: err.Error()})
			continue
		}
		h.writeFrame(conn, wsFrame{Type: frameReply, Data: reply})
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame wsFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("WARN chat: websocket write: %v", err)
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
