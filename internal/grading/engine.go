package grading

import "errors"

// Skipped is the selected-option sentinel for an unanswered question.
const Skipped = -1

// Outcome classifies a single graded response.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeSkipped   Outcome = "skipped"
)

// Q is the minimal view of a frozen question needed for grading.
type Q struct {
	CorrectOption int
	OptionCount   int
	Marks         float64
}

// Result is the outcome of grading one response.
type Result struct {
	Outcome Outcome
	Delta   float64 // signed contribution to the attempt score
	Max     float64 // the question's marks
}

var ErrOptionOutOfRange = errors.New("selected option out of range")

// Grader scores single-choice responses with negative marking.
type Grader struct {
	// NegativeMarking is the fraction of a question's marks deducted for a
	// wrong (non-skipped) answer.
	NegativeMarking float64
}

type Option func(*Grader)

func WithNegativeMarking(f float64) Option { return func(g *Grader) { g.NegativeMarking = f } }

func NewGrader(opts ...Option) Grader {
	var g Grader
	for _, o := range opts {
		o(&g)
	}
	if g.NegativeMarking < 0 {
		g.NegativeMarking = 0
	}
	return g
}

// Grade scores one response. Any negative selection is treated as skipped.
func (g Grader) Grade(q Q, selected int) (Result, error) {
	res := Result{Max: q.Marks}
	if selected < 0 {
		res.Outcome = OutcomeSkipped
		return res, nil
	}
	if q.OptionCount > 0 && selected >= q.OptionCount {
		return res, ErrOptionOutOfRange
	}
	if selected == q.CorrectOption {
		res.Outcome = OutcomeCorrect
		res.Delta = q.Marks
		return res, nil
	}
	res.Outcome = OutcomeIncorrect
	res.Delta = -q.Marks * g.NegativeMarking
	return res, nil
}

// Tally accumulates graded results into attempt-level totals.
type Tally struct {
	Score     float64
	Correct   int
	Incorrect int
	Skipped   int
}

func (t *Tally) Add(r Result) {
	t.Score += r.Delta
	switch r.Outcome {
	case OutcomeCorrect:
		t.Correct++
	case OutcomeIncorrect:
		t.Incorrect++
	default:
		t.Skipped++
	}
}
