package engine

// Feedback is the directional comparison of a guess against the true amount
type Feedback string

const (
	// Guess is above the true amount
	FeedbackTooHigh Feedback = "too-high"
	// Guess is below the true amount
	FeedbackTooLow Feedback = "too-low"
	// Guess equals the true amount exactly
	FeedbackCorrect Feedback = "correct"
)

// Range is an inclusive bound on valid guesses
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Span returns the width of the range in dollars
func (r Range) Span() int64 {
	return r.Max - r.Min
}

// Engine evaluates guesses against a puzzle's true amount and grades
// finished sessions. All methods are pure functions of their inputs;
// the struct only carries tunable thresholds.
type Engine struct {
	// Максимальное число попыток за день
	MaxGuesses int
	// A guess within this percent of the true amount is a bullseye
	BullseyePercent float64
	// Final-error ceilings for the C and D grades, in percent
	GradeCPercent float64
	GradeDPercent float64
	// Guess-count ceilings for S, A and B when the final guess is a bullseye
	SGuessLimit int
	AGuessLimit int
	BGuessLimit int
}

// New returns an engine with the standard game thresholds
func New() *Engine {
	return &Engine{
		MaxGuesses:      5, // Пять попыток в день
		BullseyePercent: 5, // В пределах 5% — это bullseye
		GradeCPercent:   10,
		GradeDPercent:   15,
		SGuessLimit:     1,
		AGuessLimit:     3,
		BGuessLimit:     5,
	}
}

// Classify compares a guess with the true amount. Total over all
// integers, no error cases.
func (e *Engine) Classify(guess, amount int64) Feedback {
	switch {
	case guess == amount:
		return FeedbackCorrect
	case guess > amount:
		return FeedbackTooHigh
	default:
		return FeedbackTooLow
	}
}

// PercentageError returns the distance between guess and amount as a
// percentage of the amount. Never negative, unbounded above. A zero
// amount is treated as maximally wrong (100) rather than dividing by
// zero.
func (e *Engine) PercentageError(guess, amount int64) float64 {
	if amount == 0 {
		return 100
	}
	diff := amount - guess
	if diff < 0 {
		diff = -diff
	}
	base := amount
	if base < 0 {
		base = -base
	}
	return float64(diff) / float64(base) * 100
}

// IsBullseye reports whether a guess lands within the bullseye
// threshold of the true amount. Independent of direction: a guess can
// be too-high and still a bullseye.
func (e *Engine) IsBullseye(guess, amount int64) bool {
	return e.PercentageError(guess, amount) <= e.BullseyePercent
}

// NarrowRange folds the guess history over the base range in
// submission order. A too-high guess lowers the upper bound to
// guess-1, a too-low guess raises the lower bound to guess+1; bounds
// only ever tighten. A contradictory history clamps to a single point
// instead of inverting the range.
func (e *Engine) NarrowRange(base Range, guesses []int64, amount int64) Range {
	r := base
	for _, g := range guesses {
		switch e.Classify(g, amount) {
		case FeedbackTooHigh:
			if g-1 < r.Max {
				r.Max = g - 1
			}
		case FeedbackTooLow:
			if g+1 > r.Min {
				r.Min = g + 1
			}
		}
	}
	if r.Max < r.Min {
		r.Max = r.Min
	}
	return r
}

// NextDefaultGuess picks where the guess slider should start for the
// next attempt: the range minimum before the first guess, afterwards
// the last guess nudged one dollar toward the answer and clamped into
// the narrowed range.
func (e *Engine) NextDefaultGuess(base Range, guesses []int64, amount int64) int64 {
	if len(guesses) == 0 {
		return base.Min
	}
	last := guesses[len(guesses)-1]
	next := last
	switch e.Classify(last, amount) {
	case FeedbackTooHigh:
		next = last - 1
	case FeedbackTooLow:
		next = last + 1
	}
	r := e.NarrowRange(base, guesses, amount)
	if next < r.Min {
		next = r.Min
	}
	if next > r.Max {
		next = r.Max
	}
	return next
}

// ShouldReveal reports whether the session terminates after the latest
// guess: attempts exhausted, exact match, or bullseye. Checked once
// per guess, right after it is appended.
func (e *Engine) ShouldReveal(guesses []int64, amount int64) bool {
	if len(guesses) == 0 {
		return false
	}
	if len(guesses) >= e.MaxGuesses {
		return true
	}
	last := guesses[len(guesses)-1]
	return last == amount || e.IsBullseye(last, amount)
}

// Outcome is the engine's verdict on a finished session
type Outcome struct {
	GuessCount int     `json:"guess_count"`
	FinalError float64 `json:"final_error"`
	Grade      Grade   `json:"grade"`
	Stars      int     `json:"stars"`
	Won        bool    `json:"won"`
	Forfeited  bool    `json:"forfeited"`
}

// EvaluateSession grades a finished session in one call. The final
// error is taken from the last guess; a session with no guesses at
// all counts as maximally wrong.
func (e *Engine) EvaluateSession(guesses []int64, amount int64, forfeited bool) Outcome {
	out := Outcome{
		GuessCount: len(guesses),
		FinalError: 100, // Ни одной попытки — ошибка максимальна
		Forfeited:  forfeited,
	}
	if len(guesses) > 0 {
		last := guesses[len(guesses)-1]
		out.FinalError = e.PercentageError(last, amount)
		out.Won = !forfeited && (last == amount || e.IsBullseye(last, amount))
	}
	out.Grade = e.Grade(out.GuessCount, out.FinalError, forfeited)
	out.Stars = out.Grade.Stars()
	return out
}
