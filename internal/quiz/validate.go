package quiz

import "fmt"

// Validate checks a quiz definition before it is stored.
func (q Quiz) Validate() error {
	if q.ID == "" || q.CollectionID == "" {
		return fmt.Errorf("%w: quiz id and collection id required", ErrInvalidInput)
	}
	switch q.Mode {
	case "", ModeNormal, ModeLive:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, q.Mode)
	}
	if q.TimeLimitSec < 0 || q.NegativeMarking < 0 {
		return fmt.Errorf("%w: negative time limit or negative marking", ErrInvalidInput)
	}
	if q.StartTime != nil && q.EndTime != nil && !q.EndTime.After(*q.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidInput)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %s has no questions", ErrInvalidInput, q.ID)
	}
	for i, qq := range q.Questions {
		if len(qq.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidInput, i)
		}
		if qq.CorrectOption < 0 || qq.CorrectOption >= len(qq.Options) {
			return fmt.Errorf("%w: question %d correct option out of range", ErrInvalidInput, i)
		}
		if qq.Marks <= 0 {
			return fmt.Errorf("%w: question %d marks must be positive", ErrInvalidInput, i)
		}
	}
	return nil
}
