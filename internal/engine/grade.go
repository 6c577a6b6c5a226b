package engine

// Grade is the letter grade awarded for a finished session
type Grade string

const (
	// Exact or bullseye on the very first guess
	GradeS Grade = "S"
	// Bullseye within three guesses
	GradeA Grade = "A"
	// Bullseye within five guesses
	GradeB Grade = "B"
	// Final guess within 10%
	GradeC Grade = "C"
	// Final guess within 15%
	GradeD Grade = "D"
	// Forfeit, or further off than 15%
	GradeF Grade = "F"
)

// Stars converts a grade to its star count (F=0 up to S=5)
func (g Grade) Stars() int {
	switch g {
	case GradeS:
		return 5
	case GradeA:
		return 4
	case GradeB:
		return 3
	case GradeC:
		return 2
	case GradeD:
		return 1
	default:
		return 0
	}
}

// gradeRule pairs a predicate with the grade it awards
type gradeRule struct {
	match func(guessCount int, finalError float64, forfeited bool) bool
	grade Grade
}

// rules returns the grading table in evaluation order. The first rule
// that matches wins; thresholds come from the engine so tests can
// substitute their own.
func (e *Engine) rules() []gradeRule {
	return []gradeRule{
		{func(_ int, _ float64, forfeited bool) bool { return forfeited }, GradeF},
		{func(n int, err float64, _ bool) bool { return err <= e.BullseyePercent && n <= e.SGuessLimit }, GradeS},
		{func(n int, err float64, _ bool) bool { return err <= e.BullseyePercent && n <= e.AGuessLimit }, GradeA},
		{func(n int, err float64, _ bool) bool { return err <= e.BullseyePercent && n <= e.BGuessLimit }, GradeB},
		{func(_ int, err float64, _ bool) bool { return err <= e.GradeCPercent }, GradeC},
		{func(_ int, err float64, _ bool) bool { return err <= e.GradeDPercent }, GradeD},
	}
}

// Grade applies the grading table to a finished session
func (e *Engine) Grade(guessCount int, finalError float64, forfeited bool) Grade {
	for _, rule := range e.rules() {
		if rule.match(guessCount, finalError, forfeited) {
			return rule.grade
		}
	}
	return GradeF
}

// StarsFor returns the star count for a grade
func (e *Engine) StarsFor(g Grade) int {
	return g.Stars()
}

// ParseGrade maps a stored grade string back to a Grade, defaulting
// to F for anything unknown
func ParseGrade(s string) Grade {
	switch Grade(s) {
	case GradeS, GradeA, GradeB, GradeC, GradeD:
		return Grade(s)
	default:
		return GradeF
	}
}
