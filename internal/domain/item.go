package domain

import "time"

// Item is a content entry (word, phrase, dialogue...) owned by the content
// store. The scheduling engine only ever reads items; creation, tagging and
// audio management happen in external admin tooling.
type Item struct {
	ID         int64     `json:"id"`
	LessonID   *int64    `json:"lesson_id"`
	Type       string    `json:"type"`
	Text       string    `json:"text"`
	AudioFile  *string   `json:"audio_file"`
	Difficulty int       `json:"difficulty"` // small positive integer, used only as a sort key
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// StudyItemKind classifies how an item entered a session.
type StudyItemKind string

// Possible study item kinds.
const (
	StudyItemReview   StudyItemKind = "review"   // due scheduled review
	StudyItemLearning StudyItemKind = "learning" // started, not yet answered correctly
	StudyItemNew      StudyItemKind = "new"      // never presented to the user
	StudyItemLearned  StudyItemKind = "learned"  // answered correctly today (reporting only)
)

// StudyItem is the denormalized row handed to clients: an item joined with
// its translation for the requested locale and, when one exists, the user's
// review state. Review fields are nil for never-started items.
type StudyItem struct {
	ReviewID    *int64        `json:"review_id"`
	ItemID      int64         `json:"item_id"`
	Text        string        `json:"text"`
	AudioFile   *string       `json:"audio_file"`
	Translation string        `json:"translation"`
	Difficulty  int           `json:"difficulty"`
	EaseFactor  *float64      `json:"ease_factor"`
	Interval    *int          `json:"interval"`
	Repetitions *int          `json:"repetitions"`
	Kind        StudyItemKind `json:"kind"`
}
