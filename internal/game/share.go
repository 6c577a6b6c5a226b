package game

import (
	"fmt"
	"strings"

	"github.com/suhailxyz/aipacdle/pkg/models"
)

// ShareText builds the spoiler-free result block players paste into
// chats: one emoji per guess, then the grade and star row. The true
// amount never appears.
func (s *Service) ShareText(puzzle *models.Puzzle, session *models.GuessSession, result *models.DailyResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "AIPACdle %s\n", puzzle.PuzzleDate)

	for _, g := range session.Guesses {
		switch {
		case s.engine.IsBullseye(g, puzzle.Amount):
			b.WriteString("🎯")
		case g > puzzle.Amount:
			b.WriteString("📉")
		default:
			b.WriteString("📈")
		}
	}
	if session.Forfeited {
		b.WriteString("🏳️")
	}

	fmt.Fprintf(&b, "\n%s %s", result.Grade, StarRow(result.Stars))
	return b.String()
}

// StarRow renders 0-5 stars as a fixed-width five-cell row
func StarRow(stars int) string {
	if stars < 0 {
		stars = 0
	}
	if stars > 5 {
		stars = 5
	}
	return strings.Repeat("⭐", stars) + strings.Repeat("▫️", 5-stars)
}
