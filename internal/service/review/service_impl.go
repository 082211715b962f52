package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aslema/aslema-api/internal/domain"
	"github.com/aslema/aslema-api/internal/domain/srs"
	"github.com/aslema/aslema-api/internal/domain/streak"
	"github.com/aslema/aslema-api/internal/platform/clock"
	"github.com/aslema/aslema-api/internal/platform/logger"
	"github.com/aslema/aslema-api/internal/store"
)

// XP awarded per correct answer. A confident answer (quality 4 or 5) is
// worth more than a barely-correct one.
const (
	xpConfidentAnswer = 15
	xpCorrectAnswer   = 10
	confidentQuality  = 4
)

// poolOversizeFactor is how many times the requested count each candidate
// pool is fetched at, so the shuffle has slack to vary within.
const poolOversizeFactor = 2

// Defaults are the session parameters applied when a request leaves them
// unset.
type Defaults struct {
	NewLimit int
	DueLimit int
	Locale   string
}

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// txRunner executes fn inside a database transaction. Indirect so tests can
// run the transactional paths against fakes without a live database.
type txRunner func(ctx context.Context, fn store.TxFn) error

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	runTx       txRunner
	reviewStore store.ReviewStore
	itemStore   store.ItemStore
	statsStore  store.UserStatsStore
	srsService  srs.Service
	clock       clock.Clock
	shuffle     *shuffler
	defaults    Defaults
	logger      *slog.Logger
}

// NewReviewService creates a new ReviewService implementation.
// A nil rng seeds a fresh source; tests pass a fixed seed for deterministic
// session composition.
func NewReviewService(
	db *sql.DB,
	reviewStore store.ReviewStore,
	itemStore store.ItemStore,
	statsStore store.UserStatsStore,
	srsService srs.Service,
	clk clock.Clock,
	rng *rand.Rand,
	defaults Defaults,
	logger *slog.Logger,
) ReviewService {
	if db == nil {
		panic("db cannot be nil")
	}
	if reviewStore == nil {
		panic("reviewStore cannot be nil")
	}
	if itemStore == nil {
		panic("itemStore cannot be nil")
	}
	if statsStore == nil {
		panic("statsStore cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
		reviewStore: reviewStore,
		itemStore:   itemStore,
		statsStore:  statsStore,
		srsService:  srsService,
		clock:       clk,
		shuffle:     newShuffler(rng),
		defaults:    defaults,
		logger:      logger.With(slog.String("component", "review_service")),
	}
}

// StartLearning implements ReviewService.StartLearning.
func (s *reviewServiceImpl) StartLearning(
	ctx context.Context,
	userID string,
	itemIDs []int64,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.clock.Now()
	reviews := make([]*domain.Review, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		review, err := domain.NewReview(userID, itemID, now)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
		}
		reviews = append(reviews, review)
	}

	var created int64
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		created, txErr = s.reviewStore.WithTx(tx).CreateIgnoreConflicts(ctx, reviews)
		return txErr
	})
	if err != nil {
		log.Error("failed to start learning items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID),
			slog.Int("item_count", len(itemIDs)))
		return 0, fmt.Errorf("failed to start learning items: %w", err)
	}

	log.Debug("started learning items",
		slog.String("user_id", userID),
		slog.Int("requested", len(itemIDs)),
		slog.Int64("created", created))
	return created, nil
}

// SubmitAnswer implements ReviewService.SubmitAnswer.
//
// The whole transition runs in one transaction with the review row locked,
// so two concurrent submissions for the same review serialize: the second
// sees the state left by the first instead of both applying the same step.
func (s *reviewServiceImpl) SubmitAnswer(
	ctx context.Context,
	userID string,
	reviewID int64,
	answer Answer,
) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if answer.Quality < 0 || answer.Quality > 5 {
		return nil, domain.ErrInvalidQuality
	}
	if answer.UserAnswer != nil && len(*answer.UserAnswer) > domain.MaxUserAnswerLength {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, domain.ErrAttemptAnswerTooLong)
	}

	now := s.clock.Now()
	var result AnswerResult

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		reviews := s.reviewStore.WithTx(tx)
		stats := s.statsStore.WithTx(tx)

		review, err := reviews.FindByIDForUpdate(ctx, reviewID)
		if err != nil {
			if errors.Is(err, store.ErrReviewNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to load review: %w", err)
		}

		if review.UserID != userID {
			return ErrReviewNotOwned
		}

		prior := srs.State{
			EaseFactor:  review.EaseFactor,
			Interval:    review.Interval,
			Repetitions: review.Repetitions,
		}
		next, err := s.srsService.Update(prior, answer.Quality, now)
		if err != nil {
			return err
		}

		review.EaseFactor = next.EaseFactor
		review.Interval = next.Interval
		review.Repetitions = next.Repetitions
		review.NextReviewAt = next.NextReviewAt
		review.LastReviewedAt = &now

		if err := reviews.Update(ctx, review); err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}

		attempt := &domain.Attempt{
			ReviewID:       review.ID,
			IsCorrect:      s.srsService.IsCorrect(answer.Quality),
			ResponseTimeMs: answer.ResponseTimeMs,
			UserAnswer:     answer.UserAnswer,
			CreatedAt:      now,
		}
		if err := reviews.InsertAttempt(ctx, attempt); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}

		if attempt.IsCorrect {
			if err := s.advanceStats(ctx, stats, userID, answer.Quality, now); err != nil {
				return err
			}
		}

		result = AnswerResult{
			EaseFactor:   next.EaseFactor,
			Interval:     next.Interval,
			Repetitions:  next.Repetitions,
			NextReviewAt: next.NextReviewAt,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) ||
			errors.Is(err, ErrReviewNotOwned) ||
			errors.Is(err, ErrInvalidAnswer) ||
			errors.Is(err, domain.ErrInvalidQuality) {
			return nil, err
		}

		log.Error("failed to submit answer",
			slog.String("error", err.Error()),
			slog.String("user_id", userID),
			slog.Int64("review_id", reviewID))
		return nil, fmt.Errorf("failed to submit answer: %w", err)
	}

	log.Debug("processed answer",
		slog.String("user_id", userID),
		slog.Int64("review_id", reviewID),
		slog.Int("quality", answer.Quality),
		slog.Float64("ease_factor", result.EaseFactor),
		slog.Int("interval", result.Interval),
		slog.Time("next_review_at", result.NextReviewAt))
	return &result, nil
}

// advanceStats applies the XP and streak transition for one correct answer,
// stamped with the same now as the review update and attempt row. Must run
// inside the SubmitAnswer transaction. The row lock from GetForUpdate covers
// existing rows; when no row exists yet there is nothing to lock, so the XP
// grant is handed to the store as a delta rather than an absolute value and
// a concurrent first write cannot be overwritten.
func (s *reviewServiceImpl) advanceStats(
	ctx context.Context,
	statsStore store.UserStatsStore,
	userID string,
	quality int,
	now time.Time,
) error {
	loc := s.clock.Location()

	stats, err := statsStore.GetForUpdate(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserStatsNotFound) {
			return fmt.Errorf("failed to load user stats: %w", err)
		}
		stats, err = domain.NewUserStats(userID)
		if err != nil {
			return fmt.Errorf("failed to create user stats: %w", err)
		}
	}

	xp := xpCorrectAnswer
	if quality >= confidentQuality {
		xp = xpConfidentAnswer
	}

	stats.CurrentStreak = streak.Advance(stats.LastActivityAt, stats.CurrentStreak, now, loc)
	stats.LongestStreak = streak.Longest(stats.LongestStreak, stats.CurrentStreak)
	stats.LastActivityAt = &now

	if err := statsStore.UpsertDelta(ctx, stats, xp); err != nil {
		return fmt.Errorf("failed to save user stats: %w", err)
	}
	return nil
}

// DueReviews implements ReviewService.DueReviews.
func (s *reviewServiceImpl) DueReviews(
	ctx context.Context,
	userID, locale string,
	limit int,
) ([]domain.StudyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = s.defaults.DueLimit
	}
	if locale == "" {
		locale = s.defaults.Locale
	}

	items, err := s.reviewStore.DuePool(ctx, userID, locale, s.clock.Now(), limit)
	if err != nil {
		log.Error("failed to list due reviews",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to list due reviews: %w", err)
	}

	if items == nil {
		items = []domain.StudyItem{}
	}
	return items, nil
}

// TodaySession implements ReviewService.TodaySession.
//
// Composition order matters: the learning backlog is loaded before the new
// item budget is computed, because the backlog caps how many new items the
// session may introduce.
func (s *reviewServiceImpl) TodaySession(
	ctx context.Context,
	userID string,
	opts SessionOptions,
) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	newLimit := opts.NewLimit
	if newLimit <= 0 {
		newLimit = s.defaults.NewLimit
	}
	dueLimit := opts.DueLimit
	if dueLimit <= 0 {
		dueLimit = s.defaults.DueLimit
	}
	locale := opts.Locale
	if locale == "" {
		locale = s.defaults.Locale
	}

	now := s.clock.Now()
	startOfDay := clock.StartOfDay(now, s.clock.Location())

	duePool, err := s.reviewStore.DuePool(ctx, userID, locale, now, dueLimit*poolOversizeFactor)
	if err != nil {
		return nil, s.sessionError(log, userID, "due pool", err)
	}
	due := s.shuffle.pick(duePool, dueLimit)

	learning, err := s.reviewStore.LearningPool(ctx, userID, locale)
	if err != nil {
		return nil, s.sessionError(log, userID, "learning pool", err)
	}
	learning = s.shuffle.pick(learning, -1)

	startedToday, err := s.reviewStore.CountCreatedSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, s.sessionError(log, userID, "started-today count", err)
	}

	budget := newItemBudget(newLimit, startedToday, len(learning))
	var newItems []domain.StudyItem
	if budget > 0 {
		newPool, err := s.itemStore.NewPool(ctx, userID, locale, budget*poolOversizeFactor)
		if err != nil {
			return nil, s.sessionError(log, userID, "new pool", err)
		}
		newItems = s.shuffle.pick(newPool, budget)
	}

	learned, err := s.reviewStore.LearnedSince(ctx, userID, locale, startOfDay)
	if err != nil {
		return nil, s.sessionError(log, userID, "learned-today list", err)
	}

	totalDue, err := s.reviewStore.CountDue(ctx, userID, now)
	if err != nil {
		return nil, s.sessionError(log, userID, "due count", err)
	}

	// Learning items always surface, budget-exempt: they lead the new work
	// list, followed by today's budgeted introductions.
	workList := make([]domain.StudyItem, 0, len(learning)+len(newItems))
	workList = append(workList, learning...)
	workList = append(workList, newItems...)

	if due == nil {
		due = []domain.StudyItem{}
	}
	if learned == nil {
		learned = []domain.StudyItem{}
	}

	return &Session{
		DueReviews:        due,
		NewItems:          workList,
		LearnedTodayItems: learned,
		TotalDue:          totalDue,
		TotalNew:          len(workList),
		TotalLearnedToday: len(learned),
	}, nil
}

// Stats implements ReviewService.Stats.
func (s *reviewServiceImpl) Stats(
	ctx context.Context,
	userID string,
	dailyNewLimit int,
) (*StatsReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if dailyNewLimit <= 0 {
		dailyNewLimit = s.defaults.NewLimit
	}

	now := s.clock.Now()
	loc := s.clock.Location()
	startOfDay := clock.StartOfDay(now, loc)

	stats, err := s.statsStore.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserStatsNotFound) {
			return nil, s.sessionError(log, userID, "user stats", err)
		}
		stats, err = domain.NewUserStats(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create user stats: %w", err)
		}
	}

	dueCount, err := s.reviewStore.CountDue(ctx, userID, now)
	if err != nil {
		return nil, s.sessionError(log, userID, "due count", err)
	}

	learning, err := s.reviewStore.LearningPool(ctx, userID, s.defaults.Locale)
	if err != nil {
		return nil, s.sessionError(log, userID, "learning pool", err)
	}

	startedToday, err := s.reviewStore.CountCreatedSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, s.sessionError(log, userID, "started-today count", err)
	}

	learned, err := s.reviewStore.LearnedSince(ctx, userID, s.defaults.Locale, startOfDay)
	if err != nil {
		return nil, s.sessionError(log, userID, "learned-today list", err)
	}

	totalNewAvailable, err := s.itemStore.CountNewForUser(ctx, userID)
	if err != nil {
		return nil, s.sessionError(log, userID, "new item count", err)
	}

	// The new work list is the learning backlog plus however many of the
	// budgeted slots the catalog can actually fill.
	budget := newItemBudget(dailyNewLimit, startedToday, len(learning))
	introducible := budget
	if totalNewAvailable < introducible {
		introducible = totalNewAvailable
	}
	newItemsCount := len(learning) + introducible

	return &StatsReport{
		TotalXp:           stats.TotalXp,
		CurrentStreak:     streak.Observe(stats.LastActivityAt, stats.CurrentStreak, now, loc),
		LongestStreak:     stats.LongestStreak,
		LastActivityAt:    stats.LastActivityAt,
		DueCount:          dueCount,
		NewItemsCount:     newItemsCount,
		LearnedTodayCount: len(learned),
		TotalNewAvailable: totalNewAvailable,
	}, nil
}

// SimulateDays implements ReviewService.SimulateDays.
func (s *reviewServiceImpl) SimulateDays(ctx context.Context, userID string, days int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.reviewStore.WithTx(tx).ShiftUserSchedule(ctx, userID, days); err != nil {
			return fmt.Errorf("failed to shift review schedule: %w", err)
		}
		if err := s.statsStore.WithTx(tx).ShiftActivity(ctx, userID, days); err != nil {
			return fmt.Errorf("failed to shift stats activity: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to simulate days",
			slog.String("error", err.Error()),
			slog.String("user_id", userID),
			slog.Int("days", days))
		return err
	}

	log.Info("simulated schedule shift",
		slog.String("user_id", userID),
		slog.Int("days", days))
	return nil
}

// Reset implements ReviewService.Reset.
func (s *reviewServiceImpl) Reset(ctx context.Context, userID string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.reviewStore.WithTx(tx).DeleteAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}
		if err := s.statsStore.WithTx(tx).DeleteForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete stats: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to reset user data",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return err
	}

	log.Info("reset user learning data", slog.String("user_id", userID))
	return nil
}

func (s *reviewServiceImpl) sessionError(
	log *slog.Logger,
	userID, step string,
	err error,
) error {
	log.Error("session composition failed",
		slog.String("step", step),
		slog.String("error", err.Error()),
		slog.String("user_id", userID))
	return fmt.Errorf("failed to load %s: %w", step, err)
}
