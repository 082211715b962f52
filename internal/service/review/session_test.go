package review

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslema/aslema-api/internal/domain"
)

func TestNewItemBudget(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		newLimit      int
		startedToday  int
		learningCount int
		want          int
	}{
		{name: "fresh day with no backlog", newLimit: 5, startedToday: 0, learningCount: 0, want: 5},
		{name: "budget partly used today", newLimit: 5, startedToday: 2, learningCount: 0, want: 3},
		{name: "budget exhausted today", newLimit: 5, startedToday: 5, learningCount: 0, want: 0},
		{name: "over budget never goes negative", newLimit: 5, startedToday: 8, learningCount: 0, want: 0},
		{name: "learning backlog caps budget", newLimit: 5, startedToday: 0, learningCount: 3, want: 2},
		{name: "backlog larger than limit", newLimit: 5, startedToday: 0, learningCount: 9, want: 0},
		{name: "tighter of the two caps wins", newLimit: 5, startedToday: 1, learningCount: 3, want: 2},
		{name: "zero limit yields zero", newLimit: 0, startedToday: 0, learningCount: 0, want: 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := newItemBudget(tc.newLimit, tc.startedToday, tc.learningCount)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestShufflerPick(t *testing.T) {
	t.Parallel()

	pool := make([]domain.StudyItem, 10)
	for i := range pool {
		pool[i] = domain.StudyItem{ItemID: int64(i + 1)}
	}

	s := newShuffler(rand.New(rand.NewSource(42)))

	picked := s.pick(append([]domain.StudyItem(nil), pool...), 4)
	assert.Len(t, picked, 4)

	// A negative limit means no truncation.
	all := s.pick(append([]domain.StudyItem(nil), pool...), -1)
	assert.Len(t, all, 10)

	// Every picked element came from the pool.
	seen := make(map[int64]bool)
	for _, item := range pool {
		seen[item.ItemID] = true
	}
	for _, item := range picked {
		assert.True(t, seen[item.ItemID])
	}
}

func TestTodaySessionComposition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newMemDB()
	seedItems(db, 12)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(db, now)

	// First session of the day for a brand-new user: nothing due, nothing in
	// progress, a full budget of new items.
	session, err := svc.TodaySession(ctx, testUser, SessionOptions{})
	require.NoError(t, err)
	assert.Empty(t, session.DueReviews)
	assert.Len(t, session.NewItems, testDefaults.NewLimit)
	assert.Equal(t, testDefaults.NewLimit, session.TotalNew)
	assert.Empty(t, session.LearnedTodayItems)

	for _, item := range session.NewItems {
		assert.Equal(t, domain.StudyItemNew, item.Kind)
		assert.Nil(t, item.ReviewID)
	}

	// The user starts their full budget. The next composition must not push
	// any more new items, however many times it is asked.
	var ids []int64
	for _, item := range session.NewItems {
		ids = append(ids, item.ItemID)
	}
	_, err = svc.StartLearning(ctx, testUser, ids)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		session, err = svc.TodaySession(ctx, testUser, SessionOptions{})
		require.NoError(t, err)

		// The started items stay in the new work list as the learning queue;
		// no further introductions fit the budget. Nothing is scheduled due.
		assert.Len(t, session.NewItems, testDefaults.NewLimit)
		assert.Equal(t, testDefaults.NewLimit, session.TotalNew)
		for _, item := range session.NewItems {
			assert.Equal(t, domain.StudyItemLearning, item.Kind)
		}
		assert.Empty(t, session.DueReviews)
		assert.Equal(t, 0, session.TotalDue)
	}
}

func TestTodaySessionLearningBacklogCapsNewItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newMemDB()
	seedItems(db, 12)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestService(db, now)

	// Three items started yesterday and never answered: they count against
	// the backlog cap but not against today's started count.
	yesterday := now.AddDate(0, 0, -1)
	for itemID := int64(1); itemID <= 3; itemID++ {
		review, err := domain.NewReview(testUser, itemID, yesterday)
		require.NoError(t, err)
		db.nextReviewID++
		review.ID = db.nextReviewID
		db.reviews[review.ID] = review
	}

	session, err := svc.TodaySession(ctx, testUser, SessionOptions{NewLimit: 5})
	require.NoError(t, err)

	// The backlog leads the new work list and caps how many fresh items may
	// join it: three in progress plus two introductions, none of them due.
	require.Len(t, session.NewItems, 5)
	assert.Equal(t, 5, session.TotalNew)
	for i, item := range session.NewItems {
		want := domain.StudyItemLearning
		if i >= 3 {
			want = domain.StudyItemNew
		}
		assert.Equal(t, want, item.Kind)
	}
	assert.Empty(t, session.DueReviews)
	assert.Equal(t, 0, session.TotalDue)

	// The counts endpoint applies the same formula: three learning plus
	// min(nine untouched items, two remaining slots).
	report, err := svc.Stats(ctx, testUser, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, report.NewItemsCount)
}

func TestTodaySessionLearnedToday(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newMemDB()
	seedItems(db, 4)
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	svc, _ := newTestService(db, now)

	_, err := svc.StartLearning(ctx, testUser, []int64{1, 2})
	require.NoError(t, err)

	review := reviewForItem(t, db, testUser, 1)
	_, err = svc.SubmitAnswer(ctx, testUser, review.ID, Answer{Quality: 4})
	require.NoError(t, err)

	session, err := svc.TodaySession(ctx, testUser, SessionOptions{})
	require.NoError(t, err)

	require.Len(t, session.LearnedTodayItems, 1)
	assert.Equal(t, int64(1), session.LearnedTodayItems[0].ItemID)
	assert.Equal(t, domain.StudyItemLearned, session.LearnedTodayItems[0].Kind)
	assert.Equal(t, 1, session.TotalLearnedToday)
}

func TestStatsAgreesWithTodaySession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newMemDB()
	seedItems(db, 12)
	now := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	svc, _ := newTestService(db, now)

	// Mixed state: two items in learning, one answered today.
	_, err := svc.StartLearning(ctx, testUser, []int64{1, 2, 3})
	require.NoError(t, err)
	review := reviewForItem(t, db, testUser, 3)
	_, err = svc.SubmitAnswer(ctx, testUser, review.ID, Answer{Quality: 5})
	require.NoError(t, err)

	session, err := svc.TodaySession(ctx, testUser, SessionOptions{})
	require.NoError(t, err)
	report, err := svc.Stats(ctx, testUser, 0)
	require.NoError(t, err)

	// The counts endpoint and the session composer share one budget formula
	// and one set of predicates, so they must agree.
	assert.Equal(t, len(session.NewItems), report.NewItemsCount)
	assert.Equal(t, session.TotalDue, report.DueCount)
	assert.Equal(t, session.TotalLearnedToday, report.LearnedTodayCount)
	assert.Equal(t, 9, report.TotalNewAvailable)
}
