package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/aslema/aslema-api/internal/domain"
	"github.com/aslema/aslema-api/internal/store"
)

// PostgresUserStatsStore implements the store.UserStatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStatsStore creates a new PostgreSQL implementation of the
// UserStatsStore interface. If logger is nil, a default logger will be used.
func NewPostgresUserStatsStore(db store.DBTX, logger *slog.Logger) *PostgresUserStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_stats_store")),
	}
}

// Ensure PostgresUserStatsStore implements store.UserStatsStore interface
var _ store.UserStatsStore = (*PostgresUserStatsStore)(nil)

// WithTx implements store.UserStatsStore.WithTx
func (s *PostgresUserStatsStore) WithTx(tx *sql.Tx) store.UserStatsStore {
	return &PostgresUserStatsStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresUserStatsStore) getStats(
	ctx context.Context,
	userID string,
	forUpdate bool,
) (*domain.UserStats, error) {
	query := `
		SELECT user_id, total_xp, current_streak, longest_streak, last_activity_at
		FROM user_stats
		WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var stats domain.UserStats
	var lastActivityAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.TotalXp,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&lastActivityAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrUserStatsNotFound
		}
		return nil, MapError(err)
	}

	if lastActivityAt.Valid {
		t := lastActivityAt.Time
		stats.LastActivityAt = &t
	}

	return &stats, nil
}

// Get implements store.UserStatsStore.Get
func (s *PostgresUserStatsStore) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	return s.getStats(ctx, userID, false)
}

// GetForUpdate implements store.UserStatsStore.GetForUpdate
func (s *PostgresUserStatsStore) GetForUpdate(
	ctx context.Context,
	userID string,
) (*domain.UserStats, error) {
	return s.getStats(ctx, userID, true)
}

// UpsertDelta implements store.UserStatsStore.UpsertDelta. The XP column is
// written as an increment so that two transactions racing to create the
// first row for a user both land their grant: the loser of the insert race
// blocks on the winner's row and then adds on top of it.
func (s *PostgresUserStatsStore) UpsertDelta(
	ctx context.Context,
	stats *domain.UserStats,
	xpDelta int,
) error {
	if err := stats.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO user_stats (user_id, total_xp, current_streak, longest_streak, last_activity_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET total_xp = user_stats.total_xp + EXCLUDED.total_xp,
			current_streak = EXCLUDED.current_streak,
			longest_streak = GREATEST(user_stats.longest_streak, EXCLUDED.longest_streak),
			last_activity_at = EXCLUDED.last_activity_at`

	_, err := s.db.ExecContext(ctx, query,
		stats.UserID,
		xpDelta,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.LastActivityAt,
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// ShiftActivity implements store.UserStatsStore.ShiftActivity
func (s *PostgresUserStatsStore) ShiftActivity(ctx context.Context, userID string, days int) error {
	query := `
		UPDATE user_stats
		SET last_activity_at = last_activity_at - make_interval(days => $2)
		WHERE user_id = $1`

	if _, err := s.db.ExecContext(ctx, query, userID, days); err != nil {
		return MapError(err)
	}

	return nil
}

// DeleteForUser implements store.UserStatsStore.DeleteForUser
func (s *PostgresUserStatsStore) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_stats WHERE user_id = $1`, userID); err != nil {
		return MapError(err)
	}

	return nil
}
