package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/fdg312/macro-coach/internal/storage"
	"github.com/google/uuid"
)

func (p *PostgresStorage) InsertMessage(ctx context.Context, msg *storage.ChatMessage) error {
	if err := p.ready(); err != nil {
		return err
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.UserID = strings.TrimSpace(msg.UserID)

	const query = `
		INSERT INTO chat_messages (id, user_id, message, response, command_type, context_data, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		msg.ID,
		msg.UserID,
		msg.Message,
		msg.Response,
		msg.CommandType,
		msg.ContextData,
		msg.CreatedAt,
	)
	return err
}

func (p *PostgresStorage) ListMessages(ctx context.Context, userID string, limit int) ([]storage.ChatMessage, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, user_id, message, response, command_type, context_data, timestamp
		FROM (
			SELECT id, user_id, message, response, command_type, context_data, timestamp
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY timestamp DESC, id DESC
			LIMIT $2
		) latest
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := p.pool.Query(ctx, query, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.ChatMessage, 0, limit)
	for rows.Next() {
		var msg storage.ChatMessage
		var commandType *string
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Message,
			&msg.Response,
			&commandType,
			&msg.ContextData,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		if commandType != nil {
			msg.CommandType = *commandType
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
