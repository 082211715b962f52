package review

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/aslema/aslema-api/internal/domain"
	"github.com/aslema/aslema-api/internal/store"
)

// memDB is the shared in-memory state behind the fake stores. Tests build
// scenarios by seeding items and reviews directly.
type memDB struct {
	items        []domain.Item
	translations map[int64]string
	reviews      map[int64]*domain.Review
	nextReviewID int64
	attempts     []domain.Attempt
	stats        map[string]*domain.UserStats
}

func newMemDB() *memDB {
	return &memDB{
		translations: make(map[int64]string),
		reviews:      make(map[int64]*domain.Review),
		stats:        make(map[string]*domain.UserStats),
	}
}

func (m *memDB) addItem(id int64, difficulty int, translation string) {
	m.items = append(m.items, domain.Item{
		ID:         id,
		Text:       "item",
		Difficulty: difficulty,
	})
	m.translations[id] = translation
}

func (m *memDB) itemByID(id int64) *domain.Item {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i]
		}
	}
	return nil
}

func (m *memDB) studyItem(r *domain.Review, kind domain.StudyItemKind) domain.StudyItem {
	item := m.itemByID(r.ItemID)
	id := r.ID
	ef := r.EaseFactor
	interval := r.Interval
	reps := r.Repetitions
	return domain.StudyItem{
		ReviewID:    &id,
		ItemID:      r.ItemID,
		Text:        item.Text,
		Translation: m.translations[r.ItemID],
		Difficulty:  item.Difficulty,
		EaseFactor:  &ef,
		Interval:    &interval,
		Repetitions: &reps,
		Kind:        kind,
	}
}

// fakeReviewStore implements store.ReviewStore over memDB.
type fakeReviewStore struct {
	db *memDB
}

var _ store.ReviewStore = (*fakeReviewStore)(nil)

func (f *fakeReviewStore) WithTx(tx *sql.Tx) store.ReviewStore { return f }

func (f *fakeReviewStore) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	r, ok := f.db.reviews[id]
	if !ok {
		return nil, store.ErrReviewNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReviewStore) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Review, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeReviewStore) Update(ctx context.Context, review *domain.Review) error {
	if _, ok := f.db.reviews[review.ID]; !ok {
		return store.ErrReviewNotFound
	}
	copied := *review
	f.db.reviews[review.ID] = &copied
	return nil
}

func (f *fakeReviewStore) CreateIgnoreConflicts(
	ctx context.Context,
	reviews []*domain.Review,
) (int64, error) {
	var created int64
	for _, review := range reviews {
		exists := false
		for _, r := range f.db.reviews {
			if r.UserID == review.UserID && r.ItemID == review.ItemID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		f.db.nextReviewID++
		copied := *review
		copied.ID = f.db.nextReviewID
		f.db.reviews[copied.ID] = &copied
		created++
	}
	return created, nil
}

func (f *fakeReviewStore) InsertAttempt(ctx context.Context, attempt *domain.Attempt) error {
	attempt.ID = int64(len(f.db.attempts) + 1)
	f.db.attempts = append(f.db.attempts, *attempt)
	return nil
}

func (f *fakeReviewStore) selectStudyItems(
	userID string,
	kind domain.StudyItemKind,
	match func(*domain.Review) bool,
) []domain.StudyItem {
	var out []domain.StudyItem
	for _, r := range f.db.reviews {
		if r.UserID == userID && match(r) {
			out = append(out, f.db.studyItem(r, kind))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

func (f *fakeReviewStore) DuePool(
	ctx context.Context,
	userID, locale string,
	now time.Time,
	limit int,
) ([]domain.StudyItem, error) {
	out := f.selectStudyItems(userID, domain.StudyItemReview, func(r *domain.Review) bool {
		return r.IsDue(now)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReviewStore) LearningPool(
	ctx context.Context,
	userID, locale string,
) ([]domain.StudyItem, error) {
	return f.selectStudyItems(userID, domain.StudyItemLearning, func(r *domain.Review) bool {
		return r.IsLearning()
	}), nil
}

func (f *fakeReviewStore) LearnedSince(
	ctx context.Context,
	userID, locale string,
	since time.Time,
) ([]domain.StudyItem, error) {
	return f.selectStudyItems(userID, domain.StudyItemLearned, func(r *domain.Review) bool {
		return r.Repetitions >= 1 && r.LastReviewedAt != nil && !r.LastReviewedAt.Before(since)
	}), nil
}

func (f *fakeReviewStore) CountDue(ctx context.Context, userID string, now time.Time) (int, error) {
	count := 0
	for _, r := range f.db.reviews {
		if r.UserID == userID && r.IsDue(now) {
			count++
		}
	}
	return count, nil
}

func (f *fakeReviewStore) CountCreatedSince(
	ctx context.Context,
	userID string,
	since time.Time,
) (int, error) {
	count := 0
	for _, r := range f.db.reviews {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeReviewStore) ShiftUserSchedule(ctx context.Context, userID string, days int) error {
	shift := time.Duration(days) * 24 * time.Hour
	for _, r := range f.db.reviews {
		if r.UserID != userID {
			continue
		}
		r.NextReviewAt = r.NextReviewAt.Add(-shift)
		r.CreatedAt = r.CreatedAt.Add(-shift)
		if r.LastReviewedAt != nil {
			t := r.LastReviewedAt.Add(-shift)
			r.LastReviewedAt = &t
		}
	}
	return nil
}

func (f *fakeReviewStore) DeleteAllForUser(ctx context.Context, userID string) error {
	for id, r := range f.db.reviews {
		if r.UserID == userID {
			delete(f.db.reviews, id)
		}
	}
	return nil
}

// fakeItemStore implements store.ItemStore over memDB.
type fakeItemStore struct {
	db *memDB
}

var _ store.ItemStore = (*fakeItemStore)(nil)

func (f *fakeItemStore) WithTx(tx *sql.Tx) store.ItemStore { return f }

func (f *fakeItemStore) started(userID string, itemID int64) bool {
	for _, r := range f.db.reviews {
		if r.UserID == userID && r.ItemID == itemID {
			return true
		}
	}
	return false
}

func (f *fakeItemStore) NewPool(
	ctx context.Context,
	userID, locale string,
	limit int,
) ([]domain.StudyItem, error) {
	var out []domain.StudyItem
	for _, item := range f.db.items {
		if f.started(userID, item.ID) {
			continue
		}
		out = append(out, domain.StudyItem{
			ItemID:      item.ID,
			Text:        item.Text,
			Translation: f.db.translations[item.ID],
			Difficulty:  item.Difficulty,
			Kind:        domain.StudyItemNew,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeItemStore) CountNewForUser(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, item := range f.db.items {
		if !f.started(userID, item.ID) {
			count++
		}
	}
	return count, nil
}

// fakeStatsStore implements store.UserStatsStore over memDB.
type fakeStatsStore struct {
	db *memDB
}

var _ store.UserStatsStore = (*fakeStatsStore)(nil)

func (f *fakeStatsStore) WithTx(tx *sql.Tx) store.UserStatsStore { return f }

func (f *fakeStatsStore) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	s, ok := f.db.stats[userID]
	if !ok {
		return nil, store.ErrUserStatsNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStatsStore) GetForUpdate(ctx context.Context, userID string) (*domain.UserStats, error) {
	return f.Get(ctx, userID)
}

func (f *fakeStatsStore) UpsertDelta(
	ctx context.Context,
	stats *domain.UserStats,
	xpDelta int,
) error {
	if err := stats.Validate(); err != nil {
		return err
	}
	existing, ok := f.db.stats[stats.UserID]
	if !ok {
		copied := *stats
		copied.TotalXp = xpDelta
		f.db.stats[stats.UserID] = &copied
		return nil
	}
	existing.TotalXp += xpDelta
	existing.CurrentStreak = stats.CurrentStreak
	if stats.LongestStreak > existing.LongestStreak {
		existing.LongestStreak = stats.LongestStreak
	}
	existing.LastActivityAt = stats.LastActivityAt
	return nil
}

func (f *fakeStatsStore) ShiftActivity(ctx context.Context, userID string, days int) error {
	s, ok := f.db.stats[userID]
	if !ok {
		return nil
	}
	if s.LastActivityAt != nil {
		t := s.LastActivityAt.Add(-time.Duration(days) * 24 * time.Hour)
		s.LastActivityAt = &t
	}
	return nil
}

func (f *fakeStatsStore) DeleteForUser(ctx context.Context, userID string) error {
	delete(f.db.stats, userID)
	return nil
}

// staleStatsStore wraps fakeStatsStore but reports no stats row on locked
// reads, the way a transaction sees the table before a concurrent insert
// commits. Writes still land in the shared memDB.
type staleStatsStore struct {
	*fakeStatsStore
}

func (s *staleStatsStore) GetForUpdate(ctx context.Context, userID string) (*domain.UserStats, error) {
	return nil, store.ErrUserStatsNotFound
}

func (s *staleStatsStore) WithTx(tx *sql.Tx) store.UserStatsStore { return s }

// tickingClock advances by step on every Now call, so any code path that
// samples the clock twice gets two different instants.
type tickingClock struct {
	t    time.Time
	step time.Duration
	loc  *time.Location
}

func (c *tickingClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func (c *tickingClock) Location() *time.Location { return c.loc }
