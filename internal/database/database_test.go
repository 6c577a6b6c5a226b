package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhailxyz/aipacdle/pkg/models"
)

// setupTestDB opens an in-memory SQLite database and installs the
// schema. MaxOpenConns must stay at 1: every :memory: connection is a
// separate empty database.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	DB = db
	require.NoError(t, initializeSchema())

	t.Cleanup(func() {
		DB.Close()
		DB = nil
	})
}

func testPuzzle(date string, amount int64) *models.Puzzle {
	return &models.Puzzle{
		PuzzleDate: date,
		Title:      "Lobbying spend " + date,
		Subject:    "Annual lobbying total",
		Amount:     amount,
		RangeMin:   0,
		RangeMax:   amount * 5,
	}
}

func testPlayer(telegramID int64, username string) *models.Player {
	return &models.Player{
		TelegramID:          telegramID,
		Username:            username,
		FirstName:           "Test",
		NotificationEnabled: true,
		NotificationHour:    9,
	}
}

func TestPuzzleRepository(t *testing.T) {
	setupTestDB(t)
	repo := NewPuzzleRepository()

	puzzle := testPuzzle("2026-03-01", 1_000_000)
	require.NoError(t, repo.Create(puzzle))
	assert.NotZero(t, puzzle.ID)
	assert.False(t, puzzle.CreatedAt.IsZero())

	got, err := repo.GetByDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, puzzle.ID, got.ID)
	assert.Equal(t, int64(1_000_000), got.Amount)
	assert.Equal(t, int64(5_000_000), got.RangeMax)

	_, err = repo.GetByDate("2026-03-02")
	assert.Equal(t, sql.ErrNoRows, err)

	got.Amount = 1_100_000
	require.NoError(t, repo.Update(got))
	reread, err := repo.GetByID(got.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_100_000), reread.Amount)

	require.NoError(t, repo.Create(testPuzzle("2026-03-05", 250_000)))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	latest, err := repo.GetLatestDate()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", latest)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2026-03-05", all[0].PuzzleDate, "newest first")

	require.NoError(t, repo.Delete(puzzle.ID))
	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPlayerRepository(t *testing.T) {
	setupTestDB(t)
	repo := NewPlayerRepository()

	player := testPlayer(111, "alice")
	require.NoError(t, repo.Create(player))
	assert.NotZero(t, player.ID)

	got, err := repo.GetByTelegramID(111)
	require.NoError(t, err)
	assert.Equal(t, player.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.NotificationEnabled)

	_, err = repo.GetByTelegramID(222)
	assert.Equal(t, sql.ErrNoRows, err)

	// Повторная регистрация не создаёт новой строки
	again := testPlayer(111, "alice")
	require.NoError(t, repo.Create(again))
	assert.Equal(t, player.ID, again.ID)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got.NotificationHour = 20
	got.NotificationEnabled = false
	require.NoError(t, repo.Update(got))

	reread, err := repo.GetByTelegramID(111)
	require.NoError(t, err)
	assert.Equal(t, 20, reread.NotificationHour)
	assert.False(t, reread.NotificationEnabled)

	require.NoError(t, repo.Create(testPlayer(333, "bob")))

	forHour, err := repo.GetPlayersForHour(9)
	require.NoError(t, err)
	require.Len(t, forHour, 1)
	assert.Equal(t, "bob", forHour[0].Username)

	notifiable, err := repo.GetNotifiable()
	require.NoError(t, err)
	assert.Len(t, notifiable, 1, "alice switched notifications off")
}

func TestSessionRepository(t *testing.T) {
	setupTestDB(t)

	puzzleRepo := NewPuzzleRepository()
	playerRepo := NewPlayerRepository()
	repo := NewSessionRepository()

	puzzle := testPuzzle("2026-03-01", 1_000_000)
	require.NoError(t, puzzleRepo.Create(puzzle))
	player := testPlayer(111, "alice")
	require.NoError(t, playerRepo.Create(player))

	_, err := repo.GetByPlayerAndDate(player.ID, "2026-03-01")
	assert.Equal(t, sql.ErrNoRows, err)

	session := &models.GuessSession{
		PlayerID:   player.ID,
		PuzzleID:   puzzle.ID,
		PuzzleDate: "2026-03-01",
		Guesses:    []int64{},
	}
	require.NoError(t, repo.Create(session))
	assert.NotZero(t, session.ID)

	// Дубликаты и порядок попыток должны пережить запись и чтение
	session.Guesses = append(session.Guesses, 2_000_000, 500_000, 500_000, 900_000)
	session.Revealed = true
	require.NoError(t, repo.Update(session))

	got, err := repo.GetByPlayerAndDate(player.ID, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, []int64{2_000_000, 500_000, 500_000, 900_000}, got.Guesses)
	assert.True(t, got.Revealed)
	assert.False(t, got.Forfeited)
	assert.Equal(t, 4, got.GuessCount())
	assert.Equal(t, int64(900_000), got.LastGuess())

	count, err := repo.CountByDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.CountByDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestResultRepository(t *testing.T) {
	setupTestDB(t)

	puzzleRepo := NewPuzzleRepository()
	playerRepo := NewPlayerRepository()
	repo := NewResultRepository()

	puzzle := testPuzzle("2026-03-01", 1_000_000)
	require.NoError(t, puzzleRepo.Create(puzzle))
	alice := testPlayer(111, "alice")
	require.NoError(t, playerRepo.Create(alice))
	bob := testPlayer(222, "bob")
	require.NoError(t, playerRepo.Create(bob))

	result := &models.DailyResult{
		PlayerID:   alice.ID,
		PuzzleID:   puzzle.ID,
		PuzzleDate: "2026-03-01",
		GuessCount: 1,
		FinalError: 2,
		Grade:      "S",
		Stars:      5,
	}
	require.NoError(t, repo.Create(result))
	assert.NotZero(t, result.ID)

	// Повторная запись того же дня перезаписывает строку
	rewrite := &models.DailyResult{
		PlayerID:   alice.ID,
		PuzzleID:   puzzle.ID,
		PuzzleDate: "2026-03-01",
		GuessCount: 3,
		FinalError: 4,
		Grade:      "A",
		Stars:      4,
	}
	require.NoError(t, repo.Create(rewrite))
	assert.Equal(t, result.ID, rewrite.ID)

	count, err := repo.CountByDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetByPlayerAndDate(alice.ID, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Grade)
	assert.Equal(t, 3, got.GuessCount)

	_, err = repo.GetByPlayerAndDate(bob.ID, "2026-03-01")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestResultRepositoryStats(t *testing.T) {
	setupTestDB(t)

	puzzleRepo := NewPuzzleRepository()
	playerRepo := NewPlayerRepository()
	repo := NewResultRepository()

	alice := testPlayer(111, "alice")
	require.NoError(t, playerRepo.Create(alice))

	// Пустая статистика до первой игры
	empty, err := repo.GetStats(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.GamesPlayed)
	assert.Equal(t, 0, empty.CurrentStreak)
	assert.Equal(t, "", empty.BestGrade)

	// Даты относительно сегодняшнего дня, чтобы текущая серия была жива
	day := func(offset int) string {
		return time.Now().UTC().AddDate(0, 0, offset).Format("2006-01-02")
	}
	days := []struct {
		date  string
		grade string
		stars int
		err   float64
	}{
		{day(-5), "A", 4, 4},
		{day(-4), "C", 2, 8},
		{day(-3), "F", 0, 40},
		// Пропущенный день рвёт серию
		{day(-1), "S", 5, 0},
		{day(0), "B", 3, 5},
	}
	for _, d := range days {
		puzzle := testPuzzle(d.date, 1_000_000)
		require.NoError(t, puzzleRepo.Create(puzzle))
		require.NoError(t, repo.Create(&models.DailyResult{
			PlayerID:   alice.ID,
			PuzzleID:   puzzle.ID,
			PuzzleDate: d.date,
			GuessCount: 2,
			FinalError: d.err,
			Grade:      d.grade,
			Stars:      d.stars,
		}))
	}

	stats, err := repo.GetStats(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.GamesPlayed)
	assert.Equal(t, 3, stats.GamesWon, "S, A and B count as wins")
	assert.Equal(t, 14, stats.TotalStars)
	assert.InDelta(t, 11.4, stats.AverageError, 1e-9)
	assert.Equal(t, "S", stats.BestGrade)
	assert.Equal(t, map[string]int{"S": 1, "A": 1, "B": 1, "C": 1, "F": 1}, stats.GradeCounts)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
}

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name    string
		dates   []string
		today   string
		current int
		longest int
	}{
		{"no games", nil, "2026-03-10", 0, 0},
		{"single day today", []string{"2026-03-01"}, "2026-03-01", 1, 1},
		{"unbroken run ending today", []string{"2026-03-01", "2026-03-02", "2026-03-03"}, "2026-03-03", 3, 3},
		{"yesterday keeps the run alive", []string{"2026-03-01", "2026-03-02", "2026-03-03"}, "2026-03-04", 3, 3},
		{"two missed days end the run", []string{"2026-03-01", "2026-03-02", "2026-03-03"}, "2026-03-05", 0, 3},
		{"gap resets current", []string{"2026-03-01", "2026-03-02", "2026-03-04"}, "2026-03-04", 1, 2},
		{"current shorter than longest", []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-07", "2026-03-08"}, "2026-03-08", 2, 3},
		{"month boundary", []string{"2026-02-28", "2026-03-01"}, "2026-03-01", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := computeStreaks(tt.dates, tt.today)
			assert.Equal(t, tt.current, current)
			assert.Equal(t, tt.longest, longest)
		})
	}
}

func TestLeaderboards(t *testing.T) {
	setupTestDB(t)

	puzzleRepo := NewPuzzleRepository()
	playerRepo := NewPlayerRepository()
	repo := NewResultRepository()

	day1 := testPuzzle("2026-03-01", 1_000_000)
	require.NoError(t, puzzleRepo.Create(day1))
	day2 := testPuzzle("2026-03-02", 750_000)
	require.NoError(t, puzzleRepo.Create(day2))

	alice := testPlayer(111, "alice")
	require.NoError(t, playerRepo.Create(alice))
	bob := testPlayer(222, "bob")
	require.NoError(t, playerRepo.Create(bob))
	carol := testPlayer(333, "")
	carol.FirstName = "Carol"
	require.NoError(t, playerRepo.Create(carol))

	seed := []struct {
		player *models.Player
		puzzle *models.Puzzle
		stars  int
		grade  string
		errPct float64
		count  int
	}{
		{alice, day1, 5, "S", 0, 1},
		{bob, day1, 3, "B", 4.5, 4},
		{carol, day1, 0, "F", 80, 5},
		{alice, day2, 4, "A", 3, 2},
	}
	for _, s := range seed {
		require.NoError(t, repo.Create(&models.DailyResult{
			PlayerID:   s.player.ID,
			PuzzleID:   s.puzzle.ID,
			PuzzleDate: s.puzzle.PuzzleDate,
			GuessCount: s.count,
			FinalError: s.errPct,
			Grade:      s.grade,
			Stars:      s.stars,
		}))
	}

	daily, err := repo.DailyLeaderboard("2026-03-01", 10)
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.Equal(t, "@alice", daily[0].DisplayName)
	assert.Equal(t, "@bob", daily[1].DisplayName)
	assert.Equal(t, "Carol", daily[2].DisplayName, "falls back to first name")
	assert.Equal(t, 5, daily[0].Stars)
	assert.Equal(t, "S", daily[0].Grade)

	allTime, err := repo.AllTimeLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, allTime, 3)
	assert.Equal(t, "@alice", allTime[0].DisplayName)
	assert.Equal(t, 9, allTime[0].TotalStars)
	assert.Equal(t, 2, allTime[0].GamesPlayed)
	assert.Equal(t, 3, allTime[1].TotalStars)

	avg, err := repo.AvgStarsByDate("2026-03-01")
	require.NoError(t, err)
	assert.InDelta(t, 8.0/3.0, avg, 1e-9)
}
