package game

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhailxyz/aipacdle/internal/database"
	"github.com/suhailxyz/aipacdle/internal/engine"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

// Sessions live on today's key, so the suite plays today's puzzle
var testDate = Today()

// setupGame opens a throwaway SQLite file and seeds one puzzle and
// one player
func setupGame(t *testing.T) (*Service, *models.Player, *models.Puzzle) {
	t.Helper()

	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "game_test.db"))
	require.NoError(t, database.Connect())
	t.Cleanup(func() { database.Close() })

	puzzle := &models.Puzzle{
		PuzzleDate: testDate,
		Title:      "Campaign contributions, 2024 cycle",
		Subject:    "Total contributions",
		Amount:     1_000_000,
		RangeMin:   0,
		RangeMax:   5_000_000,
	}
	require.NoError(t, database.NewPuzzleRepository().Create(puzzle))

	player := &models.Player{TelegramID: 111, Username: "alice", NotificationEnabled: true, NotificationHour: 9}
	require.NoError(t, database.NewPlayerRepository().Create(player))

	return New(), player, puzzle
}

func TestStartOrResume(t *testing.T) {
	svc, player, puzzle := setupGame(t)

	gotPuzzle, session, err := svc.StartOrResume(player, testDate)
	require.NoError(t, err)
	assert.Equal(t, puzzle.ID, gotPuzzle.ID)
	assert.Empty(t, session.Guesses)
	assert.False(t, session.Revealed)

	// Второй вызов возвращает ту же сессию
	_, resumed, err := svc.StartOrResume(player, testDate)
	require.NoError(t, err)
	assert.Equal(t, session.ID, resumed.ID)
}

func TestStartOrResumeNoPuzzle(t *testing.T) {
	svc, player, _ := setupGame(t)

	_, _, err := svc.StartOrResume(player, "1999-12-31")
	assert.ErrorIs(t, err, ErrNoPuzzle)
}

func TestSubmitGuessFlow(t *testing.T) {
	svc, player, _ := setupGame(t)

	turn, err := svc.SubmitGuess(player, testDate, 2_000_000)
	require.NoError(t, err)
	assert.Equal(t, engine.FeedbackTooHigh, turn.Feedback)
	assert.False(t, turn.Bullseye)
	assert.InDelta(t, 100, turn.Error, 1e-9)
	assert.Equal(t, engine.Range{Min: 0, Max: 1_999_999}, turn.Range)
	assert.Equal(t, int64(1_999_999), turn.NextGuess)
	assert.Equal(t, 4, turn.GuessesLeft)
	assert.False(t, turn.Revealed)
	assert.Nil(t, turn.Outcome)

	// Bullseye завершает день
	turn, err = svc.SubmitGuess(player, testDate, 1_040_000)
	require.NoError(t, err)
	assert.Equal(t, engine.FeedbackTooHigh, turn.Feedback)
	assert.True(t, turn.Bullseye)
	assert.True(t, turn.Revealed)
	require.NotNil(t, turn.Outcome)
	assert.Equal(t, engine.GradeA, turn.Outcome.Grade)
	assert.Equal(t, 4, turn.Outcome.Stars)
	assert.True(t, turn.Outcome.Won)

	result, _, err := svc.ResultFor(player, testDate)
	require.NoError(t, err)
	assert.Equal(t, "A", result.Grade)
	assert.Equal(t, 2, result.GuessCount)
}

func TestSubmitGuessOutOfRange(t *testing.T) {
	svc, player, _ := setupGame(t)

	_, err := svc.SubmitGuess(player, testDate, 9_000_000)
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, err = svc.SubmitGuess(player, testDate, -1)
	assert.ErrorIs(t, err, ErrInvalidGuess)

	// Неудачные попытки не записываются
	session, err := svc.SessionFor(player, testDate)
	require.NoError(t, err)
	assert.Empty(t, session.Guesses)
}

func TestSubmitGuessAfterReveal(t *testing.T) {
	svc, player, _ := setupGame(t)

	_, err := svc.SubmitGuess(player, testDate, 1_000_000)
	require.NoError(t, err)

	_, err = svc.SubmitGuess(player, testDate, 500_000)
	assert.ErrorIs(t, err, ErrSessionRevealed)
}

func TestSubmitGuessExhaustsAttempts(t *testing.T) {
	svc, player, _ := setupGame(t)

	guesses := []int64{5_000_000, 4_000_000, 3_000_000, 2_500_000, 2_000_000}
	var turn *TurnResult
	var err error
	for i, g := range guesses {
		turn, err = svc.SubmitGuess(player, testDate, g)
		require.NoError(t, err)
		assert.Equal(t, 5-(i+1), turn.GuessesLeft)
	}

	assert.True(t, turn.Revealed)
	require.NotNil(t, turn.Outcome)
	assert.Equal(t, 5, turn.Outcome.GuessCount)
	assert.InDelta(t, 100, turn.Outcome.FinalError, 1e-9)
	assert.Equal(t, engine.GradeF, turn.Outcome.Grade)
	assert.False(t, turn.Outcome.Won)
}

func TestExactGuessWinsImmediately(t *testing.T) {
	svc, player, _ := setupGame(t)

	turn, err := svc.SubmitGuess(player, testDate, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, engine.FeedbackCorrect, turn.Feedback)
	assert.True(t, turn.Revealed)
	require.NotNil(t, turn.Outcome)
	assert.Equal(t, engine.GradeS, turn.Outcome.Grade)
	assert.Equal(t, 5, turn.Outcome.Stars)
}

func TestForfeit(t *testing.T) {
	svc, player, _ := setupGame(t)

	_, err := svc.SubmitGuess(player, testDate, 2_000_000)
	require.NoError(t, err)

	outcome, err := svc.Forfeit(player, testDate)
	require.NoError(t, err)
	assert.Equal(t, engine.GradeF, outcome.Grade)
	assert.Equal(t, 0, outcome.Stars)
	assert.True(t, outcome.Forfeited)

	// После сдачи день закрыт
	_, err = svc.SubmitGuess(player, testDate, 1_000_000)
	assert.ErrorIs(t, err, ErrSessionRevealed)
	_, err = svc.Forfeit(player, testDate)
	assert.ErrorIs(t, err, ErrSessionRevealed)

	result, _, err := svc.ResultFor(player, testDate)
	require.NoError(t, err)
	assert.Equal(t, "F", result.Grade)
	assert.True(t, result.Forfeited)
}

func TestResultForNotFinished(t *testing.T) {
	svc, player, _ := setupGame(t)

	_, _, err := svc.ResultFor(player, testDate)
	assert.ErrorIs(t, err, ErrNotFinished)

	_, err = svc.SubmitGuess(player, testDate, 2_000_000)
	require.NoError(t, err)

	_, _, err = svc.ResultFor(player, testDate)
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestResultForRebuildsLostResult(t *testing.T) {
	svc, player, _ := setupGame(t)

	_, err := svc.SubmitGuess(player, testDate, 1_020_000)
	require.NoError(t, err)

	// Теряем строку результата и убеждаемся, что она восстанавливается
	_, err = database.DB.Exec("DELETE FROM results WHERE player_id = $1", player.ID)
	require.NoError(t, err)

	result, _, err := svc.ResultFor(player, testDate)
	require.NoError(t, err)
	assert.Equal(t, "S", result.Grade)
	assert.Equal(t, 1, result.GuessCount)
}

func TestStatsFor(t *testing.T) {
	svc, player, _ := setupGame(t)

	_, err := svc.SubmitGuess(player, testDate, 1_000_000)
	require.NoError(t, err)

	stats, err := svc.StatsFor(player)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 1, stats.GamesWon)
	assert.Equal(t, 5, stats.TotalStars)
	assert.Equal(t, "S", stats.BestGrade)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestShareText(t *testing.T) {
	svc, player, puzzle := setupGame(t)

	for _, g := range []int64{500_000, 2_000_000, 1_030_000} {
		_, err := svc.SubmitGuess(player, testDate, g)
		require.NoError(t, err)
	}

	session, err := svc.SessionFor(player, testDate)
	require.NoError(t, err)
	result, _, err := svc.ResultFor(player, testDate)
	require.NoError(t, err)

	text := svc.ShareText(puzzle, session, result)
	assert.Contains(t, text, "AIPACdle "+testDate)
	assert.Contains(t, text, "📈📉🎯")
	assert.Contains(t, text, "A ⭐⭐⭐⭐▫️")
	assert.NotContains(t, text, "1 000 000", "the amount must stay secret")
	assert.NotContains(t, text, "1,000,000", "the amount must stay secret")
}

func TestShareTextForfeit(t *testing.T) {
	svc, player, puzzle := setupGame(t)

	_, err := svc.SubmitGuess(player, testDate, 500_000)
	require.NoError(t, err)
	_, err = svc.Forfeit(player, testDate)
	require.NoError(t, err)

	session, err := svc.SessionFor(player, testDate)
	require.NoError(t, err)
	result, _, err := svc.ResultFor(player, testDate)
	require.NoError(t, err)

	text := svc.ShareText(puzzle, session, result)
	assert.Contains(t, text, "📈🏳️")
	assert.Contains(t, text, "F "+StarRow(0))
}

func TestStarRow(t *testing.T) {
	assert.Equal(t, "⭐⭐⭐⭐⭐", StarRow(5))
	assert.Equal(t, "⭐⭐⭐▫️▫️", StarRow(3))
	assert.Equal(t, "▫️▫️▫️▫️▫️", StarRow(0))
	assert.Equal(t, "▫️▫️▫️▫️▫️", StarRow(-2), "clamped")
	assert.Equal(t, "⭐⭐⭐⭐⭐", StarRow(9), "clamped")
}

func TestTodayFormat(t *testing.T) {
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, Today())
}
