package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/aslema/aslema-api/internal/domain"
	"github.com/aslema/aslema-api/internal/store"
)

// PostgresItemStore implements the store.ItemStore interface over the
// content catalog tables.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresItemStore creates a new PostgreSQL implementation of the
// ItemStore interface. If logger is nil, a default logger will be used.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// Ensure PostgresItemStore implements store.ItemStore interface
var _ store.ItemStore = (*PostgresItemStore)(nil)

// WithTx implements store.ItemStore.WithTx
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{
		db:     tx,
		logger: s.logger,
	}
}

// NewPool implements store.ItemStore.NewPool.
// An item is new for a user when no review row exists for the pair, so
// the anti-join on reviews and CountNewForUser must stay in lockstep.
func (s *PostgresItemStore) NewPool(
	ctx context.Context,
	userID, locale string,
	limit int,
) ([]domain.StudyItem, error) {
	query := `
		SELECT i.id, i.text, i.audio_file, COALESCE(t.translation, ''), i.difficulty
		FROM items i
		LEFT JOIN item_translations t ON t.item_id = i.id AND t.locale = $2
		LEFT JOIN reviews r ON r.item_id = i.id AND r.user_id = $1
		WHERE r.id IS NULL
		ORDER BY i.difficulty ASC, i.order_index ASC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, userID, locale, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	var items []domain.StudyItem
	for rows.Next() {
		var item domain.StudyItem
		var audioFile sql.NullString

		err := rows.Scan(
			&item.ItemID,
			&item.Text,
			&audioFile,
			&item.Translation,
			&item.Difficulty,
		)
		if err != nil {
			return nil, MapError(err)
		}

		if audioFile.Valid {
			audio := audioFile.String
			item.AudioFile = &audio
		}
		item.Kind = domain.StudyItemNew

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return items, nil
}

// CountNewForUser implements store.ItemStore.CountNewForUser
func (s *PostgresItemStore) CountNewForUser(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM items i
		LEFT JOIN reviews r ON r.item_id = i.id AND r.user_id = $1
		WHERE r.id IS NULL`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, MapError(err)
	}

	return count, nil
}
