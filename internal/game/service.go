package game

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/suhailxyz/aipacdle/internal/database"
	"github.com/suhailxyz/aipacdle/internal/engine"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

// Sentinel errors the bot layer maps to user-facing replies
var (
	// ErrNoPuzzle means nothing is scheduled for the requested date
	ErrNoPuzzle = errors.New("no puzzle scheduled for this date")
	// ErrSessionRevealed means the player's day is already over
	ErrSessionRevealed = errors.New("session already revealed")
	// ErrNotFinished means the player's day is still in progress
	ErrNotFinished = errors.New("session not finished yet")
	// ErrInvalidGuess means the guess falls outside the puzzle's range
	ErrInvalidGuess = errors.New("guess is out of range")
)

// Service handles the daily guessing game flow: one session per
// player per calendar date, up to five guesses, then a graded reveal
type Service struct {
	engine      *engine.Engine
	puzzleRepo  *database.PuzzleRepository
	sessionRepo *database.SessionRepository
	resultRepo  *database.ResultRepository
}

// New creates a game service with the standard engine thresholds
func New() *Service {
	return &Service{
		engine:      engine.New(),
		puzzleRepo:  database.NewPuzzleRepository(),
		sessionRepo: database.NewSessionRepository(),
		resultRepo:  database.NewResultRepository(),
	}
}

// Engine exposes the evaluation engine for rendering helpers
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// Today returns the current puzzle date key (UTC)
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// TurnResult is everything the presentation layer needs after one
// submitted guess
type TurnResult struct {
	Puzzle      *models.Puzzle
	Session     *models.GuessSession
	Feedback    engine.Feedback
	Bullseye    bool
	Error       float64
	Range       engine.Range // Narrowed range after this guess
	NextGuess   int64        // Suggested starting point for the next attempt
	GuessesLeft int
	Revealed    bool
	Outcome     *engine.Outcome // Set once the session terminates
}

// PuzzleFor returns the puzzle for a date, or ErrNoPuzzle
func (s *Service) PuzzleFor(date string) (*models.Puzzle, error) {
	puzzle, err := s.puzzleRepo.GetByDate(date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoPuzzle
		}
		return nil, err
	}
	return puzzle, nil
}

// StartOrResume loads the player's session for a date, creating an
// empty one on first contact
func (s *Service) StartOrResume(player *models.Player, date string) (*models.Puzzle, *models.GuessSession, error) {
	puzzle, err := s.PuzzleFor(date)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessionRepo.GetByPlayerAndDate(player.ID, date)
	if err == sql.ErrNoRows {
		session = &models.GuessSession{
			PlayerID:   player.ID,
			PuzzleID:   puzzle.ID,
			PuzzleDate: date,
			Guesses:    []int64{},
		}
		if err := s.sessionRepo.Create(session); err != nil {
			return nil, nil, err
		}
		return puzzle, session, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return puzzle, session, nil
}

// SubmitGuess appends one guess to the player's session, persists it,
// and terminates the session when the guess exhausts the attempts,
// hits exactly, or lands a bullseye
func (s *Service) SubmitGuess(player *models.Player, date string, guess int64) (*TurnResult, error) {
	puzzle, session, err := s.StartOrResume(player, date)
	if err != nil {
		return nil, err
	}

	if session.Revealed {
		return nil, ErrSessionRevealed
	}
	if guess < puzzle.RangeMin || guess > puzzle.RangeMax {
		return nil, fmt.Errorf("%w: guess %d not in [%d, %d]", ErrInvalidGuess, guess, puzzle.RangeMin, puzzle.RangeMax)
	}

	session.Guesses = append(session.Guesses, guess)
	if s.engine.ShouldReveal(session.Guesses, puzzle.Amount) {
		session.Revealed = true
	}
	if err := s.sessionRepo.Update(session); err != nil {
		return nil, err
	}

	base := engine.Range{Min: puzzle.RangeMin, Max: puzzle.RangeMax}
	turn := &TurnResult{
		Puzzle:      puzzle,
		Session:     session,
		Feedback:    s.engine.Classify(guess, puzzle.Amount),
		Bullseye:    s.engine.IsBullseye(guess, puzzle.Amount),
		Error:       s.engine.PercentageError(guess, puzzle.Amount),
		Range:       s.engine.NarrowRange(base, session.Guesses, puzzle.Amount),
		NextGuess:   s.engine.NextDefaultGuess(base, session.Guesses, puzzle.Amount),
		GuessesLeft: s.engine.MaxGuesses - session.GuessCount(),
		Revealed:    session.Revealed,
	}

	if session.Revealed {
		outcome, err := s.finishSession(puzzle, session)
		if err != nil {
			return nil, err
		}
		turn.Outcome = outcome
	}

	return turn, nil
}

// Forfeit gives up the player's current session. The day is graded F
// no matter what was guessed before.
func (s *Service) Forfeit(player *models.Player, date string) (*engine.Outcome, error) {
	puzzle, session, err := s.StartOrResume(player, date)
	if err != nil {
		return nil, err
	}
	if session.Revealed {
		return nil, ErrSessionRevealed
	}

	session.Forfeited = true
	session.Revealed = true
	if err := s.sessionRepo.Update(session); err != nil {
		return nil, err
	}

	return s.finishSession(puzzle, session)
}

// finishSession grades a terminated session and records the result
func (s *Service) finishSession(puzzle *models.Puzzle, session *models.GuessSession) (*engine.Outcome, error) {
	outcome := s.engine.EvaluateSession(session.Guesses, puzzle.Amount, session.Forfeited)

	result := &models.DailyResult{
		PlayerID:   session.PlayerID,
		PuzzleID:   puzzle.ID,
		PuzzleDate: session.PuzzleDate,
		GuessCount: outcome.GuessCount,
		FinalError: outcome.FinalError,
		Grade:      string(outcome.Grade),
		Stars:      outcome.Stars,
		Forfeited:  outcome.Forfeited,
	}
	if err := s.resultRepo.Create(result); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// ResultFor returns the player's graded result for a date. If the
// session terminated but the result row is missing, it is rebuilt
// from the stored guesses.
func (s *Service) ResultFor(player *models.Player, date string) (*models.DailyResult, *models.Puzzle, error) {
	puzzle, err := s.PuzzleFor(date)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.resultRepo.GetByPlayerAndDate(player.ID, date)
	if err == nil {
		return result, puzzle, nil
	}
	if err != sql.ErrNoRows {
		return nil, nil, err
	}

	// Результата нет: либо день не доигран, либо запись потерялась
	session, err := s.sessionRepo.GetByPlayerAndDate(player.ID, date)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFinished
	}
	if err != nil {
		return nil, nil, err
	}
	if !session.Revealed {
		return nil, nil, ErrNotFinished
	}

	if _, err := s.finishSession(puzzle, session); err != nil {
		return nil, nil, err
	}
	result, err = s.resultRepo.GetByPlayerAndDate(player.ID, date)
	if err != nil {
		return nil, nil, err
	}
	return result, puzzle, nil
}

// SessionFor returns the player's session for a date without creating
// one
func (s *Service) SessionFor(player *models.Player, date string) (*models.GuessSession, error) {
	session, err := s.sessionRepo.GetByPlayerAndDate(player.ID, date)
	if err == sql.ErrNoRows {
		return nil, ErrNotFinished
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// StatsFor aggregates the player's all-time statistics
func (s *Service) StatsFor(player *models.Player) (*models.PlayerStats, error) {
	return s.resultRepo.GetStats(player.ID)
}
