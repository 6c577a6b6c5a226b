package scheduler

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/suhailxyz/aipacdle/internal/database"
	"github.com/suhailxyz/aipacdle/internal/engine"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

// Константы для окна уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 6  // Раньше этого часа (UTC) никого не будим
	DefaultNotificationEndHour   = 22 // Позже этого часа анонсы не шлём
	DefaultReminderHour          = 20 // Вечернее напоминание о недоигранном дне
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
}

// Notifier is the messaging side of the bot the scheduler pushes through
type Notifier interface {
	SendDailyPuzzle(telegramID int64, puzzle *models.Puzzle) error
	SendReminder(telegramID int64, guessesLeft int) error
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Schedule hourly check for players whose announce hour has come
	s.scheduler.Every(1).Hour().Do(s.announceDailyPuzzle)

	// Evening reminder for players who started today's puzzle but never finished it
	reminderAt := fmt.Sprintf("%02d:00", hourFromEnv("REMINDER_HOUR", DefaultReminderHour))
	s.scheduler.Every(1).Day().At(reminderAt).Do(s.remindUnfinished)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// announceDailyPuzzle sends today's puzzle to every player whose
// notification hour matches the current hour and who has not finished
// the day yet. Puzzle dates roll at UTC midnight, so hours are UTC too.
func (s *Scheduler) announceDailyPuzzle() {
	currentHour := time.Now().UTC().Hour()

	startHour := hourFromEnv("NOTIFICATION_START_HOUR", DefaultNotificationStartHour)
	endHour := hourFromEnv("NOTIFICATION_END_HOUR", DefaultNotificationEndHour)

	// Проверяем, находится ли текущий час в диапазоне времени для отправки уведомлений
	if currentHour < startHour || currentHour > endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping announcements",
			currentHour, startHour, endHour)
		return
	}

	today := time.Now().UTC().Format("2006-01-02")

	puzzleRepo := database.NewPuzzleRepository()
	puzzle, err := puzzleRepo.GetByDate(today)
	if err == sql.ErrNoRows {
		log.Printf("No puzzle published for %s, skipping announcements", today)
		return
	}
	if err != nil {
		log.Printf("Error loading puzzle for %s: %v", today, err)
		return
	}

	playerRepo := database.NewPlayerRepository()
	resultRepo := database.NewResultRepository()

	// Get players who should receive the announce at the current hour
	players, err := playerRepo.GetPlayersForHour(currentHour)
	if err != nil {
		log.Printf("Error getting players for notification: %v", err)
		return
	}

	for _, player := range players {
		// Уже доиграл сегодняшний день — не беспокоим
		if _, err := resultRepo.GetByPlayerAndDate(player.ID, today); err == nil {
			continue
		}

		if err := s.notifier.SendDailyPuzzle(player.TelegramID, puzzle); err != nil {
			log.Printf("Error announcing puzzle to player %d: %v", player.ID, err)
		}
	}
}

// remindUnfinished pings players who made at least one guess today but
// left the session hanging
func (s *Scheduler) remindUnfinished() {
	today := time.Now().UTC().Format("2006-01-02")

	playerRepo := database.NewPlayerRepository()
	sessionRepo := database.NewSessionRepository()

	players, err := playerRepo.GetNotifiable()
	if err != nil {
		log.Printf("Error getting players for reminders: %v", err)
		return
	}

	eng := engine.New()
	for _, player := range players {
		session, err := sessionRepo.GetByPlayerAndDate(player.ID, today)
		if err != nil {
			// День не начат — утреннего анонса достаточно
			continue
		}
		if session.Revealed || session.GuessCount() == 0 {
			continue
		}

		left := eng.MaxGuesses - session.GuessCount()
		if err := s.notifier.SendReminder(player.TelegramID, left); err != nil {
			log.Printf("Error sending reminder to player %d: %v", player.ID, err)
		}
	}
}

// RunBroadcast immediately announces today's puzzle to every notifiable
// player who has not finished the day, regardless of their chosen hour.
// Used by admins after publishing a puzzle late.
func (s *Scheduler) RunBroadcast() (int, error) {
	today := time.Now().UTC().Format("2006-01-02")

	puzzle, err := database.NewPuzzleRepository().GetByDate(today)
	if err != nil {
		return 0, err
	}

	players, err := database.NewPlayerRepository().GetNotifiable()
	if err != nil {
		return 0, err
	}

	resultRepo := database.NewResultRepository()
	sent := 0
	for _, player := range players {
		if _, err := resultRepo.GetByPlayerAndDate(player.ID, today); err == nil {
			continue
		}
		if err := s.notifier.SendDailyPuzzle(player.TelegramID, puzzle); err != nil {
			log.Printf("Error announcing puzzle to player %d: %v", player.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// hourFromEnv reads an hour override from the environment, falling back
// when the variable is unset or not a valid hour
func hourFromEnv(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
		return h
	}
	return fallback
}
