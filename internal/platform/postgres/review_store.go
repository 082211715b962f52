package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/aslema/aslema-api/internal/domain"
	"github.com/aslema/aslema-api/internal/store"
)

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the
// ReviewStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}

const reviewColumns = `id, user_id, item_id, ease_factor, interval_days, repetitions,
	next_review_at, last_reviewed_at, created_at`

func scanReview(row *sql.Row) (*domain.Review, error) {
	var review domain.Review
	var lastReviewedAt sql.NullTime

	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.ItemID,
		&review.EaseFactor,
		&review.Interval,
		&review.Repetitions,
		&review.NextReviewAt,
		&lastReviewedAt,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastReviewedAt.Valid {
		t := lastReviewedAt.Time
		review.LastReviewedAt = &t
	}

	return &review, nil
}

// FindByID implements store.ReviewStore.FindByID
func (s *PostgresReviewStore) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrReviewNotFound
		}
		return nil, MapError(err)
	}

	return review, nil
}

// FindByIDForUpdate implements store.ReviewStore.FindByIDForUpdate.
// The row lock is held until the enclosing transaction commits or rolls
// back, so concurrent answer submissions for the same review serialize
// instead of losing an SM-2 transition.
func (s *PostgresReviewStore) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`

	review, err := scanReview(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrReviewNotFound
		}
		return nil, MapError(err)
	}

	return review, nil
}

// Update implements store.ReviewStore.Update
func (s *PostgresReviewStore) Update(ctx context.Context, review *domain.Review) error {
	if err := review.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE reviews
		SET ease_factor = $1,
			interval_days = $2,
			repetitions = $3,
			next_review_at = $4,
			last_reviewed_at = $5
		WHERE id = $6`

	result, err := s.db.ExecContext(ctx, query,
		review.EaseFactor,
		review.Interval,
		review.Repetitions,
		review.NextReviewAt,
		review.LastReviewedAt,
		review.ID,
	)
	if err != nil {
		return MapError(err)
	}

	return CheckRowsAffected(result, "review")
}

// CreateIgnoreConflicts implements store.ReviewStore.CreateIgnoreConflicts.
// The unique (user_id, item_id) constraint turns duplicate starts into
// silent no-ops; RowsAffected reports only the rows actually inserted.
func (s *PostgresReviewStore) CreateIgnoreConflicts(
	ctx context.Context,
	reviews []*domain.Review,
) (int64, error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO reviews (user_id, item_id, ease_factor, interval_days,
			repetitions, next_review_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, item_id) DO NOTHING`

	var created int64
	for _, review := range reviews {
		if err := review.Validate(); err != nil {
			return created, err
		}

		result, err := s.db.ExecContext(ctx, query,
			review.UserID,
			review.ItemID,
			review.EaseFactor,
			review.Interval,
			review.Repetitions,
			review.NextReviewAt,
			review.CreatedAt,
		)
		if err != nil {
			return created, MapError(err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return created, MapError(err)
		}
		created += rows
	}

	return created, nil
}

// InsertAttempt implements store.ReviewStore.InsertAttempt
func (s *PostgresReviewStore) InsertAttempt(ctx context.Context, attempt *domain.Attempt) error {
	if err := attempt.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO attempts (review_id, is_correct, response_time_ms, user_answer, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		attempt.ReviewID,
		attempt.IsCorrect,
		attempt.ResponseTimeMs,
		attempt.UserAnswer,
		attempt.CreatedAt,
	).Scan(&attempt.ID)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// studyItemQuery joins reviews with items and the translation for the
// requested locale. Translation resolution beyond the locale lookup is the
// content store's concern; a missing translation falls back to empty.
const studyItemQuery = `
	SELECT r.id, i.id, i.text, i.audio_file, COALESCE(t.translation, ''), i.difficulty,
		r.ease_factor, r.interval_days, r.repetitions
	FROM reviews r
	JOIN items i ON i.id = r.item_id
	LEFT JOIN item_translations t ON t.item_id = i.id AND t.locale = $2
	WHERE r.user_id = $1`

func (s *PostgresReviewStore) queryStudyItems(
	ctx context.Context,
	kind domain.StudyItemKind,
	query string,
	args ...any,
) ([]domain.StudyItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
		var reviewID int64
		var audioFile sql.NullString
		var easeFactor float64
		var interval, repetitions int

		err := rows.Scan(
			&reviewID,
			&item.ItemID,
			&item.Text,
			&audioFile,
			&item.Translation,
			&item.Difficulty,
			&easeFactor,
			&interval,
			&repetitions,
		)
		if err != nil {
			return nil, MapError(err)
		}

		item.ReviewID = &reviewID
		if audioFile.Valid {
			audio := audioFile.String
			item.AudioFile = &audio
		}
		item.EaseFactor = &easeFactor
		item.Interval = &interval
		item.Repetitions = &repetitions
		item.Kind = kind

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return items, nil
}

// DuePool implements store.ReviewStore.DuePool
func (s *PostgresReviewStore) DuePool(
	ctx context.Context,
	userID, locale string,
	now time.Time,
	limit int,
) ([]domain.StudyItem, error) {
	query := studyItemQuery + `
		AND r.repetitions >= 1 AND r.next_review_at <= $3
		ORDER BY i.difficulty ASC, i.order_index ASC
		LIMIT $4`

	return s.queryStudyItems(ctx, domain.StudyItemReview, query, userID, locale, now, limit)
}

// LearningPool implements store.ReviewStore.LearningPool
func (s *PostgresReviewStore) LearningPool(
	ctx context.Context,
	userID, locale string,
) ([]domain.StudyItem, error) {
	query := studyItemQuery + `
		AND r.repetitions = 0
		ORDER BY i.difficulty ASC, i.order_index ASC`

	return s.queryStudyItems(ctx, domain.StudyItemLearning, query, userID, locale)
}

// LearnedSince implements store.ReviewStore.LearnedSince
func (s *PostgresReviewStore) LearnedSince(
	ctx context.Context,
	userID, locale string,
	since time.Time,
) ([]domain.StudyItem, error) {
	query := studyItemQuery + `
		AND r.repetitions >= 1 AND r.last_reviewed_at >= $3
		ORDER BY r.last_reviewed_at DESC`

	return s.queryStudyItems(ctx, domain.StudyItemLearned, query, userID, locale, since)
}

// CountDue implements store.ReviewStore.CountDue
func (s *PostgresReviewStore) CountDue(ctx context.Context, userID string, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM reviews
		WHERE user_id = $1 AND repetitions >= 1 AND next_review_at <= $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, now).Scan(&count); err != nil {
		return 0, MapError(err)
	}

	return count, nil
}

// CountCreatedSince implements store.ReviewStore.CountCreatedSince
func (s *PostgresReviewStore) CountCreatedSince(
	ctx context.Context,
	userID string,
	since time.Time,
) (int, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE user_id = $1 AND created_at >= $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, MapError(err)
	}

	return count, nil
}

// ShiftUserSchedule implements store.ReviewStore.ShiftUserSchedule.
// Shifting created_at alongside the review timestamps keeps the daily
// new-item budget consistent when days are simulated.
func (s *PostgresReviewStore) ShiftUserSchedule(ctx context.Context, userID string, days int) error {
	query := `
		UPDATE reviews
		SET next_review_at = next_review_at - make_interval(days => $2),
			last_reviewed_at = last_reviewed_at - make_interval(days => $2),
			created_at = created_at - make_interval(days => $2)
		WHERE user_id = $1`

	if _, err := s.db.ExecContext(ctx, query, userID, days); err != nil {
		return MapError(err)
	}

	return nil
}

// DeleteAllForUser implements store.ReviewStore.DeleteAllForUser.
// Attempts go with their reviews via ON DELETE CASCADE.
func (s *PostgresReviewStore) DeleteAllForUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE user_id = $1`, userID); err != nil {
		return MapError(err)
	}

	return nil
}
