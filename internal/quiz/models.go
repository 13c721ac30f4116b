package quiz

import "time"

type Mode string

const (
	ModeLive   Mode = "LIVE"
	ModeNormal Mode = "NORMAL"
)

// Question is the full authoring view, including correctness data.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	ImageLink     string   `json:"image_link,omitempty"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Marks         float64  `json:"marks"`
	Category      string   `json:"category,omitempty"` // unit tag
	Chapter       string   `json:"chapter,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

type Quiz struct {
	ID              string     `json:"id"`
	CollectionID    string     `json:"collection_id"`
	Category        string     `json:"category,omitempty"` // competitive category of the parent collection
	Title           string     `json:"title"`
	TimeLimitSec    int        `json:"time_limit_sec"`
	NegativeMarking float64    `json:"negative_marking"`
	Mode            Mode       `json:"mode"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Questions       []Question `json:"questions"`
}

// FrozenQuestion is a question as it was served in one session, after
// shuffling. OriginalIndex is its position in the quiz definition.
type FrozenQuestion struct {
	Question
	OriginalIndex int `json:"original_index"`
}

// SafeQuestion is what students see before answering. It has no correct
// option and no explanation.
type SafeQuestion struct {
	Index     int      `json:"index"`
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	ImageLink string   `json:"image_link,omitempty"`
	Options   []string `json:"options"`
	Marks     float64  `json:"marks"`
	Category  string   `json:"category,omitempty"`
	Chapter   string   `json:"chapter,omitempty"`
}

type SessionKind string

const (
	KindQuiz     SessionKind = "quiz"
	KindPractice SessionKind = "practice"
)

// Session freezes the exact questions and option order served to one user
// for one quiz attempt.
type Session struct {
	Token       string           `json:"token"`
	UserID      string           `json:"user_id"`
	QuizID      string           `json:"quiz_id"`
	Kind        SessionKind      `json:"kind"`
	Questions   []FrozenQuestion `json:"questions"`
	CreatedAt   time.Time        `json:"created_at"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`

	// scoring parameters copied from the quiz when the session was frozen
	NegativeMarking float64 `json:"negative_marking"`
	TimeLimitSec    int     `json:"time_limit_sec"`
}

// Response is one client-submitted answer. SelectedOption -1 means skipped.
type Response struct {
	QuestionIndex  int  `json:"question_index"`
	SelectedOption int  `json:"selected_option"`
	Bookmarked     bool `json:"bookmarked"`
	TimeSpent      int  `json:"time_spent"` // seconds
}

// AttemptDetail is one graded response within an attempt.
type AttemptDetail struct {
	QuestionIndex  int     `json:"question_index"`
	OriginalIndex  int     `json:"original_index"`
	QuestionID     string  `json:"question_id"`
	SelectedOption int     `json:"selected_option"`
	Bookmarked     bool    `json:"bookmarked"`
	IsCorrect      bool    `json:"is_correct"`
	Skipped        bool    `json:"skipped"`
	TimeSpent      int     `json:"time_spent"`
	Delta          float64 `json:"delta"`
}

// Breakdown aggregates outcomes for one category or chapter.
type Breakdown struct {
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Skipped   int     `json:"skipped"`
	Score     float64 `json:"score"`
}

type Analytics struct {
	ByCategory map[string]Breakdown `json:"by_category"`
	ByChapter  map[string]Breakdown `json:"by_chapter"`
}

type AttemptSummary struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	QuizID         string          `json:"quiz_id"`
	SessionToken   string          `json:"-"`
	AttemptNumber  int             `json:"attempt_number"`
	Score          float64         `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	CorrectCount   int             `json:"correct_count"`
	IncorrectCount int             `json:"incorrect_count"`
	SkippedCount   int             `json:"skipped_count"`
	TotalTimeSec   int             `json:"total_time_sec"`
	Responses      []AttemptDetail `json:"responses"`
	Analytics      Analytics       `json:"analytics"`
	CreatedAt      time.Time       `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	AttemptID    string    `json:"attempt_id"`
	Score        float64   `json:"score"`
	TotalTimeSec int       `json:"total_time_sec"`
	CorrectCount int       `json:"correct_count"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Self         bool      `json:"self,omitempty"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
	Self    *LeaderboardEntry  `json:"self,omitempty"`
}

type PoolKind string

const (
	PoolMistakes  PoolKind = "mistakes"
	PoolBookmarks PoolKind = "bookmarks"
)

// PoolEntry is a mistake or bookmark row. QuestionIndex is the position in
// the quiz definition.
type PoolEntry struct {
	QuestionIndex  int           `json:"question_index"`
	IncorrectCount int           `json:"incorrect_count,omitempty"`
	LastAttempted  time.Time     `json:"last_attempted"`
	Question       *SafeQuestion `json:"question,omitempty"`
}
