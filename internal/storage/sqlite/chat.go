package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

func (s *SQLiteStorage) InsertMessage(ctx context.Context, msg *storage.ChatMessage) error {
	if err := s.ready(); err != nil {
		return err
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.UserID = strings.TrimSpace(msg.UserID)

	var contextData any
	if len(msg.ContextData) > 0 {
		contextData = string(msg.ContextData)
	}

	const query = `
		INSERT INTO chat_messages (id, user_id, message, response, command_type, context_data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID.String(),
		msg.UserID,
		msg.Message,
		msg.Response,
		msg.CommandType,
		contextData,
		formatTime(msg.CreatedAt),
	)
	return err
}

func (s *SQLiteStorage) ListMessages(ctx context.Context, userID string, limit int) ([]storage.ChatMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, user_id, message, response, command_type, context_data, timestamp
		FROM (
			SELECT rowid AS rid, id, user_id, message, response, command_type, context_data, timestamp
			FROM chat_messages
			WHERE user_id = ?
			ORDER BY timestamp DESC, rowid DESC
			LIMIT ?
		) latest
		ORDER BY timestamp ASC, rid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.ChatMessage, 0, limit)
	for rows.Next() {
		var msg storage.ChatMessage
		var id, ts string
		var commandType, contextData sql.NullString
		if err := rows.Scan(&id, &msg.UserID, &msg.Message, &msg.Response, &commandType, &contextData, &ts); err != nil {
			return nil, err
		}
		if msg.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if msg.CreatedAt, err = parseTime(ts); err != nil {
			return nil, err
		}
		msg.CommandType = commandType.String
		if contextData.Valid {
			msg.ContextData = []byte(contextData.String)
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
