package quiz

import (
	"math/rand/v2"
	"strings"
)

// Shuffler permutes n elements via swap, with the signature of rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// Ordering arranges a quiz's questions before they are frozen into a session.
type Ordering interface {
	Arrange(qs []FrozenQuestion, shuffle Shuffler) []FrozenQuestion
}

// ---- Registry ----

var orderings = map[string]Ordering{}

// RegisterOrdering binds a competitive category (case-insensitive) to an
// Ordering. Call from init().
func RegisterOrdering(category string, o Ordering) {
	if category == "" || o == nil {
		return
	}
	orderings[strings.ToUpper(category)] = o
}

// OrderingFor returns the category's ordering, or a uniform shuffle.
func OrderingFor(category string) Ordering {
	if o, ok := orderings[strings.ToUpper(strings.TrimSpace(category))]; ok {
		return o
	}
	return Uniform{}
}

func init() {
	RegisterOrdering("IOE", MarkBlocks{LowMarks: 1})
}

// Uniform shuffles the whole list.
type Uniform struct{}

func (Uniform) Arrange(qs []FrozenQuestion, shuffle Shuffler) []FrozenQuestion {
	shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	return qs
}

// MarkBlocks serves questions worth at most LowMarks first and the rest
// after, shuffling each block on its own.
type MarkBlocks struct {
	LowMarks float64
}

func (b MarkBlocks) Arrange(qs []FrozenQuestion, shuffle Shuffler) []FrozenQuestion {
	low := make([]FrozenQuestion, 0, len(qs))
	high := make([]FrozenQuestion, 0, len(qs))
	for _, q := range qs {
		if q.Marks <= b.LowMarks {
			low = append(low, q)
		} else {
			high = append(high, q)
		}
	}
	low = Uniform{}.Arrange(low, shuffle)
	high = Uniform{}.Arrange(high, shuffle)
	return append(low, high...)
}

// ---- Materializer ----

type Materializer struct {
	shuffle Shuffler
}

// NewMaterializer returns a Materializer using shuffle, or the global
// math/rand/v2 source when shuffle is nil.
func NewMaterializer(shuffle Shuffler) *Materializer {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Materializer{shuffle: shuffle}
}

// Materialize freezes a quiz's questions for one session: questions are
// ordered per the category's rule, and each question's options are shuffled
// with the correct option tracked by value.
func (m *Materializer) Materialize(questions []Question, category string) []FrozenQuestion {
	frozen := make([]FrozenQuestion, len(questions))
	for i, q := range questions {
		frozen[i] = FrozenQuestion{Question: q, OriginalIndex: i}
	}
	frozen = OrderingFor(category).Arrange(frozen, m.shuffle)
	for i := range frozen {
		frozen[i].Question = m.shuffleOptions(frozen[i].Question)
	}
	return frozen
}

// MaterializeSubset freezes an already-selected set (a practice pool),
// keeping each question's OriginalIndex.
func (m *Materializer) MaterializeSubset(qs []FrozenQuestion) []FrozenQuestion {
	frozen := make([]FrozenQuestion, len(qs))
	copy(frozen, qs)
	frozen = Uniform{}.Arrange(frozen, m.shuffle)
	for i := range frozen {
		frozen[i].Question = m.shuffleOptions(frozen[i].Question)
	}
	return frozen
}

// shuffleOptions permutes a copy of the options. With duplicate option texts
// the first match wins.
func (m *Materializer) shuffleOptions(q Question) Question {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	hasCorrect := q.CorrectOption >= 0 && q.CorrectOption < len(opts)
	var correct string
	if hasCorrect {
		correct = opts[q.CorrectOption]
	}

	m.shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })

	q.Options = opts
	q.CorrectOption = -1
	if hasCorrect {
		for i, o := range opts {
			if o == correct {
				q.CorrectOption = i
				break
			}
		}
	}
	return q
}

// SafeView strips correctness data from a frozen set.
func SafeView(frozen []FrozenQuestion) []SafeQuestion {
	out := make([]SafeQuestion, len(frozen))
	for i, q := range frozen {
		out[i] = safeQuestion(i, q.Question)
	}
	return out
}

func safeQuestion(index int, q Question) SafeQuestion {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return SafeQuestion{
		Index:     index,
		ID:        q.ID,
		Text:      q.Text,
		ImageLink: q.ImageLink,
		Options:   opts,
		Marks:     q.Marks,
		Category:  q.Category,
		Chapter:   q.Chapter,
	}
}
