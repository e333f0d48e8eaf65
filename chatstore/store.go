package chatstore

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the narrow persistence capability the completion relay consumes.
// The database is the sole arbiter of consistency for concurrent writes to
// the same chat.
type Store interface {
	CreateMessage(ctx context.Context, chatID, role, content string) error
	MessageCount(ctx context.Context, chatID string) (int, error)
	ChatTitle(ctx context.Context, chatID string) (string, error)
	UpdateChatTitle(ctx context.Context, chatID, title string) error
}

type PostgresStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

func (s *PostgresStore) CreateMessage(ctx context.Context, chatID, role, content string) error {
	query := `INSERT INTO messages (id, chat_id, role, content, created_at) VALUES ($1, $2, $3, $4, now())`
	_, err := s.db.Exec(ctx, query, uuid.NewString(), chatID, role, content)
	if err != nil {
		s.logger.Error("Failed to insert message",
			slog.String("chat_id", chatID),
			slog.String("role", role),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *PostgresStore) MessageCount(ctx context.Context, chatID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE chat_id = $1`
	if err := s.db.QueryRow(ctx, query, chatID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *PostgresStore) ChatTitle(ctx context.Context, chatID string) (string, error) {
	var title string
	query := `SELECT title FROM chats WHERE id = $1`
	if err := s.db.QueryRow(ctx, query, chatID).Scan(&title); err != nil {
		return "", err
	}
	return title, nil
}

func (s *PostgresStore) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	query := `UPDATE chats SET title = $1, updated_at = now() WHERE id = $2`
	_, err := s.db.Exec(ctx, query, title, chatID)
	if err != nil {
		s.logger.Error("Failed to update chat title",
			slog.String("chat_id", chatID),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
