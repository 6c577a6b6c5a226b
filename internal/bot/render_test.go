package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suhailxyz/aipacdle/internal/engine"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

func TestFormatDollars(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "$0"},
		{5, "$5"},
		{999, "$999"},
		{1_000, "$1,000"},
		{1_234_567, "$1,234,567"},
		{1_000_000_000, "$1,000,000,000"},
		{-42_000, "-$42,000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDollars(tt.in), "input %d", tt.in)
	}
}

func TestGaugeLine(t *testing.T) {
	line := gaugeLine(24, 0)
	assert.True(t, strings.HasPrefix(line, "🔘"), "marker sits at the left end")

	line = gaugeLine(24, 1)
	assert.True(t, strings.HasSuffix(line, "🔘"), "marker sits at the right end")

	// Ровно один маркер при любой позиции
	for _, pos := range []float64{-0.5, 0, 0.25, 0.5, 0.99, 1, 2} {
		assert.Equal(t, 1, strings.Count(gaugeLine(24, pos), "🔘"), "pos %v", pos)
	}
}

func TestPuzzleCardHidesAmount(t *testing.T) {
	eng := engine.New()
	puzzle := &models.Puzzle{
		PuzzleDate: "2026-03-01",
		Title:      "Cycle total",
		Subject:    "Contributions",
		Amount:     1_234_567,
		RangeMin:   0,
		RangeMax:   5_000_000,
	}
	session := &models.GuessSession{Guesses: []int64{2_000_000, 500_000}}

	card := puzzleCard(eng, puzzle, session)
	assert.Contains(t, card, "Cycle total")
	assert.Contains(t, card, "too high")
	assert.Contains(t, card, "too low")
	assert.Contains(t, card, "Guesses left: 3")
	assert.Contains(t, card, "$500,001 — $1,999,999", "range narrowed by both guesses")
	assert.NotContains(t, card, "1,234,567", "the answer must stay hidden")
}

func TestRevealText(t *testing.T) {
	puzzle := &models.Puzzle{
		PuzzleDate: "2026-03-01",
		Title:      "Cycle total",
		Amount:     1_000_000,
		SourceURL:  "https://example.org/filing",
	}

	won := revealText(puzzle, &engine.Outcome{
		GuessCount: 2,
		FinalError: 3,
		Grade:      engine.GradeA,
		Stars:      4,
		Won:        true,
	})
	assert.Contains(t, won, "Bullseye")
	assert.Contains(t, won, "$1,000,000")
	assert.Contains(t, won, "Grade: *A*")
	assert.Contains(t, won, "https://example.org/filing")

	forfeit := revealText(puzzle, &engine.Outcome{
		FinalError: 100,
		Grade:      engine.GradeF,
		Forfeited:  true,
	})
	assert.Contains(t, forfeit, "gave up")
	assert.Contains(t, forfeit, "Grade: *F*")
}

func TestLeaderboardText(t *testing.T) {
	assert.Contains(t, leaderboardText(nil, "Today", false), "Nobody has finished yet")

	entries := []models.LeaderboardEntry{
		{DisplayName: "@alice", Stars: 5, Grade: "S"},
		{DisplayName: "@bob", Stars: 3, Grade: "B"},
	}
	text := leaderboardText(entries, "Today's standings", false)
	assert.Contains(t, text, "🥇 @alice")
	assert.Contains(t, text, "🥈 @bob")

	allTime := []models.LeaderboardEntry{
		{DisplayName: "@alice", TotalStars: 14, GamesPlayed: 4},
	}
	text = leaderboardText(allTime, "All-time standings", true)
	assert.Contains(t, text, "14⭐ over 4 days")
}
