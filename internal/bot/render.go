package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/suhailxyz/aipacdle/internal/engine"
	"github.com/suhailxyz/aipacdle/internal/game"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

// formatDollars renders whole dollars with thousands separators
func formatDollars(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	return sign + "$" + strings.Join(groups, ",")
}

// guessLine renders one guess of the day's history
func guessLine(n int, guess int64, feedback engine.Feedback, bullseye bool) string {
	switch {
	case feedback == engine.FeedbackCorrect:
		return fmt.Sprintf("%d. 🎯 %s — exact!", n, formatDollars(guess))
	case bullseye:
		return fmt.Sprintf("%d. 🎯 %s — bullseye", n, formatDollars(guess))
	case feedback == engine.FeedbackTooHigh:
		return fmt.Sprintf("%d. 📉 %s — too high", n, formatDollars(guess))
	default:
		return fmt.Sprintf("%d. 📈 %s — too low", n, formatDollars(guess))
	}
}

// puzzleCard renders the day's puzzle with the guess history so far.
// The card never contains the true amount.
func puzzleCard(eng *engine.Engine, puzzle *models.Puzzle, session *models.GuessSession) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🗓 *AIPACdle — %s*\n\n", puzzle.PuzzleDate)
	fmt.Fprintf(&b, "*%s*\n", puzzle.Title)
	if puzzle.Subject != "" {
		fmt.Fprintf(&b, "_%s_\n", puzzle.Subject)
	}
	if puzzle.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", puzzle.Description)
	}

	base := engine.Range{Min: puzzle.RangeMin, Max: puzzle.RangeMax}
	r := base
	left := eng.MaxGuesses

	if session != nil && session.GuessCount() > 0 {
		b.WriteString("\n")
		for i, g := range session.Guesses {
			feedback := eng.Classify(g, puzzle.Amount)
			b.WriteString(guessLine(i+1, g, feedback, eng.IsBullseye(g, puzzle.Amount)))
			b.WriteString("\n")
		}
		r = eng.NarrowRange(base, session.Guesses, puzzle.Amount)
		left -= session.GuessCount()
	}

	fmt.Fprintf(&b, "\nRange: %s — %s\n", formatDollars(r.Min), formatDollars(r.Max))
	fmt.Fprintf(&b, "Guesses left: %d\n", left)
	b.WriteString("\nSend an amount like $1,250,000 (or 1.25m), or open the slider.")
	return b.String()
}

// turnText renders the feedback for the guess that was just submitted
func turnText(turn *game.TurnResult) string {
	var b strings.Builder

	b.WriteString(guessLine(turn.Session.GuessCount(), turn.Session.LastGuess(), turn.Feedback, turn.Bullseye))
	if !turn.Revealed {
		fmt.Fprintf(&b, "\n\nRange: %s — %s\n", formatDollars(turn.Range.Min), formatDollars(turn.Range.Max))
		fmt.Fprintf(&b, "Guesses left: %d", turn.GuessesLeft)
	}
	return b.String()
}

// revealText renders the end-of-day verdict right after the session
// terminates
func revealText(puzzle *models.Puzzle, outcome *engine.Outcome) string {
	var b strings.Builder

	switch {
	case outcome.Forfeited:
		b.WriteString("🏳️ You gave up.\n\n")
	case outcome.Won:
		b.WriteString("🎯 Bullseye!\n\n")
	default:
		b.WriteString("❌ Out of guesses.\n\n")
	}

	fmt.Fprintf(&b, "The answer: *%s*\n", formatDollars(puzzle.Amount))
	fmt.Fprintf(&b, "Final error: %.1f%%\n", outcome.FinalError)
	fmt.Fprintf(&b, "Grade: *%s* %s\n", outcome.Grade, game.StarRow(outcome.Stars))
	if puzzle.SourceURL != "" {
		fmt.Fprintf(&b, "\nSource: %s\n", puzzle.SourceURL)
	}
	b.WriteString("\nShare your run with /share. New puzzle tomorrow!")
	return b.String()
}

// resultText renders a stored result when the player asks for it later
func resultText(puzzle *models.Puzzle, result *models.DailyResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🗓 *AIPACdle — %s*\n\n", result.PuzzleDate)
	if result.Forfeited {
		b.WriteString("🏳️ Forfeited.\n")
	} else {
		fmt.Fprintf(&b, "Guesses used: %d\n", result.GuessCount)
	}
	fmt.Fprintf(&b, "The answer: *%s*\n", formatDollars(puzzle.Amount))
	fmt.Fprintf(&b, "Final error: %.1f%%\n", result.FinalError)
	fmt.Fprintf(&b, "Grade: *%s* %s\n", result.Grade, game.StarRow(result.Stars))
	if puzzle.SourceURL != "" {
		fmt.Fprintf(&b, "\nSource: %s\n", puzzle.SourceURL)
	}
	return b.String()
}

// gaugeLine draws the slider as a fixed-width bar with a marker at the
// current position. The bar is linear in slider travel, which makes it
// power-law in dollars: most cells cover the cheap end of the range.
func gaugeLine(width int, pos float64) string {
	if width < 2 {
		width = 2
	}
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	marker := int(math.Round(pos * float64(width-1)))

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i == marker {
			b.WriteString("🔘")
		} else {
			b.WriteString("─")
		}
	}
	return b.String()
}

// sliderText renders the slider message body for a given position
func sliderText(s engine.Scale, pos float64, width int) string {
	var b strings.Builder

	b.WriteString("🎚 *Slider*\n\n")
	fmt.Fprintf(&b, "%s\n", gaugeLine(width, pos))
	fmt.Fprintf(&b, "Current: *%s*\n", formatDollars(s.Value(pos)))
	fmt.Fprintf(&b, "Range: %s — %s\n", formatDollars(s.Min), formatDollars(s.Max))
	b.WriteString("\nThe scale is stretched: fine steps near the low end, huge ones near the top.")
	return b.String()
}

// statsText renders a player's all-time statistics
func statsText(stats *models.PlayerStats) string {
	var b strings.Builder

	b.WriteString("📊 *Your statistics*\n\n")
	fmt.Fprintf(&b, "Days played: %d\n", stats.GamesPlayed)
	fmt.Fprintf(&b, "Days won: %d\n", stats.GamesWon)
	fmt.Fprintf(&b, "Total stars: %d\n", stats.TotalStars)
	if stats.GamesPlayed > 0 {
		fmt.Fprintf(&b, "Average error: %.1f%%\n", stats.AverageError)
		fmt.Fprintf(&b, "Best grade: %s\n", stats.BestGrade)
	}
	fmt.Fprintf(&b, "Current streak: %d\n", stats.CurrentStreak)
	fmt.Fprintf(&b, "Longest streak: %d\n", stats.LongestStreak)

	if len(stats.GradeCounts) > 0 {
		b.WriteString("\nGrades:\n")
		for _, g := range []string{"S", "A", "B", "C", "D", "F"} {
			if n := stats.GradeCounts[g]; n > 0 {
				fmt.Fprintf(&b, "%s × %d\n", g, n)
			}
		}
	}
	return b.String()
}

// leaderboardText renders the daily or all-time standings
func leaderboardText(entries []models.LeaderboardEntry, title string, allTime bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🏆 *%s*\n\n", title)
	if len(entries) == 0 {
		b.WriteString("Nobody has finished yet. Be the first!")
		return b.String()
	}

	for i, e := range entries {
		place := fmt.Sprintf("%d.", i+1)
		switch i {
		case 0:
			place = "🥇"
		case 1:
			place = "🥈"
		case 2:
			place = "🥉"
		}
		if allTime {
			fmt.Fprintf(&b, "%s %s — %d⭐ over %d days\n", place, e.DisplayName, e.TotalStars, e.GamesPlayed)
		} else {
			fmt.Fprintf(&b, "%s %s — %s %s\n", place, e.DisplayName, e.Grade, game.StarRow(e.Stars))
		}
	}
	return b.String()
}

// settingsText renders the player's current notification settings
func settingsText(player *models.Player) string {
	status := "enabled"
	if !player.NotificationEnabled {
		status = "disabled"
	}
	return fmt.Sprintf("⚙️ *Settings*\n\n"+
		"Daily announce: %s\n"+
		"Announce hour: %02d:00 UTC\n\n"+
		"The bot pings you when a new puzzle drops, and in the evening if you left a day unfinished.",
		status, player.NotificationHour)
}
