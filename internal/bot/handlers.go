package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/suhailxyz/aipacdle/internal/catalog"
	"github.com/suhailxyz/aipacdle/internal/engine"
	"github.com/suhailxyz/aipacdle/internal/game"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(message *tgbotapi.Message) error {
	player, err := b.ensurePlayer(message.From)
	if err != nil {
		return err
	}

	switch message.Command() {
	case "start":
		return b.handleStart(message, player)
	case "help":
		return b.handleHelp(message)
	case "menu":
		return b.showMainMenu(message.Chat.ID)
	case "play", "today":
		return b.handlePlay(message, player)
	case "guess":
		return b.handleGuessCommand(message, player)
	case "giveup":
		return b.handleGiveUp(message, player)
	case "result":
		return b.handleResult(message, player)
	case "share":
		return b.handleShare(message, player)
	case "hint":
		return b.handleHint(message, player)
	case "stats":
		return b.handleStats(message, player)
	case "leaderboard":
		return b.handleLeaderboard(message)
	case "settings":
		return b.handleSettings(message, player)
	case "notify":
		return b.handleNotifyCommand(message, player)
	case "time":
		return b.handleTimeCommand(message, player)
	case "import":
		return b.adminOnly(message, player, b.handleImportCommand)
	case "addpuzzle":
		return b.adminOnly(message, player, b.handleAddPuzzle)
	case "announce":
		return b.adminOnly(message, player, b.handleAnnounce)
	case "admin_stats":
		return b.adminOnly(message, player, b.handleAdminStats)
	default:
		return b.handleUnknownCommand(message)
	}
}

// ensurePlayer loads the player's profile, creating it on first contact
func (b *Bot) ensurePlayer(from *tgbotapi.User) (*models.Player, error) {
	if from == nil {
		return nil, fmt.Errorf("message has no sender")
	}

	player, err := b.playerRepo.GetByTelegramID(from.ID)
	if err == nil {
		return player, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get player: %v", err)
	}

	// Первое касание — заводим профиль с настройками по умолчанию
	player = &models.Player{
		TelegramID:          from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		IsAdmin:             b.adminUserIDs[from.ID],
		NotificationEnabled: true,
		NotificationHour:    9,
	}
	if err := b.playerRepo.Create(player); err != nil {
		return nil, fmt.Errorf("failed to create player: %v", err)
	}
	return player, nil
}

type commandHandler func(*tgbotapi.Message, *models.Player) error

// adminOnly runs the handler only for configured administrators
func (b *Bot) adminOnly(message *tgbotapi.Message, player *models.Player, handler commandHandler) error {
	if !b.isAdmin(message.From.ID) {
		msg := tgbotapi.NewMessage(message.Chat.ID, "This command is only available for administrators.")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		return b.sendMessage(msg)
	}
	return handler(message, player)
}

func (b *Bot) handleStart(message *tgbotapi.Message, player *models.Player) error {
	text := fmt.Sprintf("👋 Welcome to AIPACdle, %s!\n\n"+
		"Every day there is one political-money figure to guess. You get five guesses; "+
		"after each one I tell you whether you went too high or too low, and the range tightens.\n\n"+
		"Land within 5%% of the answer for a bullseye. Fewer guesses, better grade.\n\n"+
		"Open today's puzzle with /play.", player.DisplayName())

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 *How to play*\n\n" +
		"One puzzle a day, five guesses. After each guess you learn whether " +
		"the real amount is higher or lower. Within 5% is a bullseye and ends the day.\n\n" +
		"*Grades:* S — bullseye on the first try, A — within three guesses, " +
		"B — within five, C and D — close misses, F — out of luck.\n\n" +
		"*Commands:*\n" +
		"/play — today's puzzle\n" +
		"/guess <amount> — make a guess (or just send a number)\n" +
		"/giveup — forfeit today's puzzle\n" +
		"/result [date] — your graded result\n" +
		"/share — spoiler-free block to paste anywhere\n" +
		"/hint — a vague nudge about the scale\n" +
		"/stats — your all-time statistics\n" +
		"/leaderboard [all] — today's or all-time standings\n" +
		"/settings — announces and their hour\n"

	if b.isAdmin(message.From.ID) {
		text += "\n*Admin:*\n" +
			"/import — upload a puzzle catalog (xlsx, csv or json)\n" +
			"/addpuzzle — add one puzzle inline\n" +
			"/announce — broadcast today's puzzle now\n" +
			"/admin_stats — system counters\n"
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "« Menu", CallbackData: "main_menu"}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handlePlay(message *tgbotapi.Message, player *models.Player) error {
	today := game.Today()

	puzzle, session, err := b.game.StartOrResume(player, today)
	if errors.Is(err, game.ErrNoPuzzle) {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "😴 No puzzle is scheduled for today. Check back tomorrow!"))
	}
	if err != nil {
		return err
	}

	if session.Revealed {
		// День уже доигран — сразу показываем результат
		return b.handleResult(message, player)
	}

	if puzzle.ImageURL != "" {
		photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FileURL(puzzle.ImageURL))
		if _, err := b.api.Send(photo); err != nil {
			log.Printf("Error sending puzzle image: %v", err)
		}
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, puzzleCard(b.game.Engine(), puzzle, session))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard(b.playKeyboard())
	return b.sendMessage(msg)
}

func (b *Bot) handleGuessCommand(message *tgbotapi.Message, player *models.Player) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Usage: /guess <amount>, e.g. /guess $1,250,000 or /guess 1.25m"))
	}

	amount, err := parseAmount(args)
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "I couldn't read that amount. Try $1,250,000 or 1.25m."))
	}
	return b.submitGuess(message.Chat.ID, player, amount)
}

// handleAmountText treats a bare number in chat as a guess
func (b *Bot) handleAmountText(message *tgbotapi.Message) error {
	player, err := b.ensurePlayer(message.From)
	if err != nil {
		return err
	}

	amount, err := parseAmount(message.Text)
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "I couldn't read that amount. Try $1,250,000 or 1.25m."))
	}
	return b.submitGuess(message.Chat.ID, player, amount)
}

// submitGuess runs one turn and renders whatever phase it lands in
func (b *Bot) submitGuess(chatID int64, player *models.Player, amount int64) error {
	today := game.Today()

	turn, err := b.game.SubmitGuess(player, today, amount)
	switch {
	case errors.Is(err, game.ErrNoPuzzle):
		return b.sendMessage(tgbotapi.NewMessage(chatID, "😴 No puzzle is scheduled for today."))
	case errors.Is(err, game.ErrSessionRevealed):
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Today's puzzle is already finished for you. See /result, or come back tomorrow!"))
	case errors.Is(err, game.ErrInvalidGuess):
		puzzle, perr := b.game.PuzzleFor(today)
		if perr != nil {
			return perr
		}
		text := fmt.Sprintf("🚫 Out of bounds. Guess between %s and %s.",
			formatDollars(puzzle.RangeMin), formatDollars(puzzle.RangeMax))
		return b.sendMessage(tgbotapi.NewMessage(chatID, text))
	case err != nil:
		return err
	}

	if turn.Revealed {
		msg := tgbotapi.NewMessage(chatID, turnText(turn)+"\n\n"+revealText(turn.Puzzle, turn.Outcome))
		msg.ParseMode = "Markdown"
		msg.ReplyMarkup = createKeyboard(resultKeyboard())
		return b.sendMessage(msg)
	}

	msg := tgbotapi.NewMessage(chatID, turnText(turn))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard(b.playKeyboard())
	return b.sendMessage(msg)
}

func (b *Bot) handleGiveUp(message *tgbotapi.Message, player *models.Player) error {
	today := game.Today()

	outcome, err := b.game.Forfeit(player, today)
	switch {
	case errors.Is(err, game.ErrNoPuzzle):
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "😴 No puzzle is scheduled for today."))
	case errors.Is(err, game.ErrSessionRevealed):
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Today's puzzle is already finished for you. See /result."))
	case err != nil:
		return err
	}

	puzzle, err := b.game.PuzzleFor(today)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, revealText(puzzle, outcome))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard(resultKeyboard())
	return b.sendMessage(msg)
}

func (b *Bot) handleResult(message *tgbotapi.Message, player *models.Player) error {
	date := game.Today()
	if args := strings.TrimSpace(message.CommandArguments()); args != "" {
		if _, err := time.Parse("2006-01-02", args); err != nil {
			return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Dates look like 2026-08-23: /result [date]"))
		}
		date = args
	}

	result, puzzle, err := b.game.ResultFor(player, date)
	switch {
	case errors.Is(err, game.ErrNoPuzzle):
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "😴 No puzzle was scheduled for that day."))
	case errors.Is(err, game.ErrNotFinished):
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("No finished result for %s yet. Today's puzzle: /play", date)))
	case err != nil:
		return err
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, resultText(puzzle, result))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard(resultKeyboard())
	return b.sendMessage(msg)
}

func (b *Bot) handleShare(message *tgbotapi.Message, player *models.Player) error {
	today := game.Today()

	result, puzzle, err := b.game.ResultFor(player, today)
	switch {
	case errors.Is(err, game.ErrNoPuzzle):
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "😴 No puzzle is scheduled for today."))
	case errors.Is(err, game.ErrNotFinished):
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Finish today's puzzle first, then come back for the share block."))
	case err != nil:
		return err
	}

	session, err := b.game.SessionFor(player, today)
	if err != nil {
		return err
	}

	// Без parse mode: блок должен копироваться как есть
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, b.game.ShareText(puzzle, session, result)))
}

func (b *Bot) handleHint(message *tgbotapi.Message, _ *models.Player) error {
	puzzle, err := b.game.PuzzleFor(game.Today())
	if errors.Is(err, game.ErrNoPuzzle) {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "😴 No puzzle is scheduled for today."))
	}
	if err != nil {
		return err
	}

	hint := b.chatGPT.GenerateHintWithFallback(puzzle)
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "💡 "+hint))
}

func (b *Bot) handleStats(message *tgbotapi.Message, player *models.Player) error {
	stats, err := b.game.StatsFor(player)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %v", err)
	}

	if stats.GamesPlayed == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID, "You haven't finished a single day yet. Start with /play!")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		return b.sendMessage(msg)
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, statsText(stats))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleLeaderboard(message *tgbotapi.Message) error {
	allTime := strings.EqualFold(strings.TrimSpace(message.CommandArguments()), "all")
	return b.sendLeaderboard(message.Chat.ID, allTime)
}

// sendLeaderboard renders the standings, daily unless allTime
func (b *Bot) sendLeaderboard(chatID int64, allTime bool) error {
	if allTime {
		entries, err := b.resultRepo.AllTimeLeaderboard(b.config.LeaderboardSize)
		if err != nil {
			return fmt.Errorf("failed to get leaderboard: %v", err)
		}
		msg := tgbotapi.NewMessage(chatID, leaderboardText(entries, "All-time standings", true))
		msg.ParseMode = "Markdown"
		msg.ReplyMarkup = createKeyboard([][]MenuButton{
			{{Text: "« Menu", CallbackData: "main_menu"}},
		})
		return b.sendMessage(msg)
	}

	today := game.Today()
	entries, err := b.resultRepo.DailyLeaderboard(today, b.config.LeaderboardSize)
	if err != nil {
		return fmt.Errorf("failed to get leaderboard: %v", err)
	}
	msg := tgbotapi.NewMessage(chatID, leaderboardText(entries, "Today's standings — "+today, false))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🌍 All-time", CallbackData: "leaderboard_all"}, {Text: "« Menu", CallbackData: "main_menu"}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleSettings(message *tgbotapi.Message, player *models.Player) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, settingsText(player))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = settingsKeyboard(player)
	return b.sendMessage(msg)
}

func (b *Bot) handleNotifyCommand(message *tgbotapi.Message, player *models.Player) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Usage: /notify <on|off>"))
	}

	switch strings.ToLower(args) {
	case "on":
		player.NotificationEnabled = true
	case "off":
		player.NotificationEnabled = false
	default:
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Usage: /notify <on|off>"))
	}

	if err := b.playerRepo.Update(player); err != nil {
		return fmt.Errorf("failed to update player: %v", err)
	}

	status := "enabled"
	if !player.NotificationEnabled {
		status = "disabled"
	}
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("✅ Daily announces %s", status)))
}

func (b *Bot) handleTimeCommand(message *tgbotapi.Message, player *models.Player) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Usage: /time <hour 0-23>, in UTC"))
	}

	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Please give an hour between 0 and 23"))
	}

	player.NotificationHour = hour
	if err := b.playerRepo.Update(player); err != nil {
		return fmt.Errorf("failed to update player: %v", err)
	}

	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("✅ Announce hour set to %02d:00 UTC", hour)))
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /help for the list of commands.")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// --- Admin commands ---

func (b *Bot) handleImportCommand(message *tgbotapi.Message, _ *models.Player) error {
	b.setAwaitingFile(message.From.ID, true)

	text := "📥 Send me the puzzle catalog as a document (.xlsx, .csv or .json).\n\n" +
		"Columns, in order: date (YYYY-MM-DD), title, subject, description, " +
		"amount, range_min, range_max, image_url, source_url.\n" +
		"Existing dates are updated, new ones created."
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, text))
}

// processPuzzleFile downloads an uploaded catalog and runs the importer
func (b *Bot) processPuzzleFile(message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "This command is only available for administrators."))
	}
	doc := message.Document

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to resolve file: %v", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download file: %v", err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "catalog-*"+filepath.Ext(doc.FileName))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save file: %v", err)
	}
	tmp.Close()

	config := catalog.DefaultImportConfig()
	config.FilePath = tmp.Name()

	result, err := catalog.ImportPuzzles(config)
	if err != nil {
		return err
	}

	var reply strings.Builder
	reply.WriteString("📥 Import finished: " + result.Summary() + "\n")
	for i, e := range result.Errors {
		if i == 10 {
			fmt.Fprintf(&reply, "… and %d more\n", len(result.Errors)-10)
			break
		}
		reply.WriteString("• " + e + "\n")
	}
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, reply.String()))
}

func (b *Bot) handleAddPuzzle(message *tgbotapi.Message, _ *models.Player) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		usage := "Format:\n/addpuzzle <date>|<title>|<subject>|<amount>|<range_min>|<range_max>|[description]\n\n" +
			"Example:\n/addpuzzle 2026-09-01|PAC transfer to candidate X|Campaign finance|1.5m|0|10m|Reported in the Q2 filing."
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, usage))
	}

	parts := strings.Split(args, "|")
	if len(parts) < 6 {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "❌ Expected at least 6 fields separated by |. Send /addpuzzle without arguments for the format."))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	amount, err := parseAmount(parts[3])
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("❌ Bad amount: %v", err)))
	}
	rangeMin, err := parseAmount(parts[4])
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("❌ Bad range_min: %v", err)))
	}
	rangeMax, err := parseAmount(parts[5])
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("❌ Bad range_max: %v", err)))
	}

	puzzle := &models.Puzzle{
		PuzzleDate: parts[0],
		Title:      parts[1],
		Subject:    parts[2],
		Amount:     amount,
		RangeMin:   rangeMin,
		RangeMax:   rangeMax,
	}
	if len(parts) >= 7 {
		puzzle.Description = parts[6]
	}

	if err := catalog.ValidatePuzzle(puzzle); err != nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("❌ %v", err)))
	}

	// Upsert по дате, как делает импортёр каталога
	existing, err := b.puzzleRepo.GetByDate(puzzle.PuzzleDate)
	switch {
	case err == nil:
		puzzle.ID = existing.ID
		if err := b.puzzleRepo.Update(puzzle); err != nil {
			return fmt.Errorf("failed to update puzzle: %v", err)
		}
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("♻️ Updated puzzle for %s: %s (%s)", puzzle.PuzzleDate, puzzle.Title, formatDollars(amount))))
	case err == sql.ErrNoRows:
		if err := b.puzzleRepo.Create(puzzle); err != nil {
			return fmt.Errorf("failed to create puzzle: %v", err)
		}
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("✅ Created puzzle for %s: %s (%s)", puzzle.PuzzleDate, puzzle.Title, formatDollars(amount))))
	default:
		return fmt.Errorf("failed to check existing puzzle: %v", err)
	}
}

func (b *Bot) handleAnnounce(message *tgbotapi.Message, _ *models.Player) error {
	if b.scheduler == nil {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "Scheduler is disabled (ENABLE_SCHEDULER=false)."))
	}

	sent, err := b.scheduler.RunBroadcast()
	if err == sql.ErrNoRows {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "No puzzle is published for today."))
	}
	if err != nil {
		return err
	}
	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("📣 Announced today's puzzle to %d players", sent)))
}

func (b *Bot) handleAdminStats(message *tgbotapi.Message, _ *models.Player) error {
	today := game.Today()

	players, _ := b.playerRepo.Count()
	puzzles, _ := b.puzzleRepo.Count()
	latest, _ := b.puzzleRepo.GetLatestDate()
	if latest == "" {
		latest = "none"
	}
	finished, _ := b.resultRepo.CountByDate(today)
	avgStars, _ := b.resultRepo.AvgStarsByDate(today)

	text := "📟 System statistics\n\n" +
		fmt.Sprintf("Players: %d\n", players) +
		fmt.Sprintf("Puzzles in catalog: %d (latest: %s)\n", puzzles, latest) +
		fmt.Sprintf("Finished today: %d (avg %.1f⭐)\n", finished, avgStars) +
		fmt.Sprintf("Server time: %s\n", time.Now().UTC().Format("2006-01-02 15:04:05"))

	return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, text))
}

// --- Callback queries ---

// HandleCallback handles presses on inline buttons
func (b *Bot) HandleCallback(callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer the callback query to remove the loading state
	answer := tgbotapi.NewCallback(callback.ID, "")
	if _, err := b.api.Request(answer); err != nil {
		log.Printf("Warning: Failed to answer callback: %v", err)
	}

	player, err := b.ensurePlayer(callback.From)
	if err != nil {
		return err
	}

	chatID := callback.Message.Chat.ID
	// Синтетическое сообщение, чтобы переиспользовать командные хендлеры
	msg := &tgbotapi.Message{From: callback.From, Chat: callback.Message.Chat}

	switch callback.Data {
	case "main_menu":
		err = b.showMainMenu(chatID)
	case "play":
		err = b.handlePlay(msg, player)
	case "stats":
		err = b.handleStats(msg, player)
	case "leaderboard":
		err = b.sendLeaderboard(chatID, false)
	case "leaderboard_all":
		err = b.sendLeaderboard(chatID, true)
	case "share":
		err = b.handleShare(msg, player)
	case "hint":
		err = b.handleHint(msg, player)
	case "giveup":
		err = b.handleGiveUp(msg, player)
	case "settings":
		err = b.handleSettings(msg, player)
	case "notify_on", "notify_off":
		err = b.handleNotifyToggle(callback, player)
	case "slider_open":
		err = b.handleSliderOpen(callback, player)
	default:
		// Позиция слайдера и выбор часа приходят с параметром
		switch {
		case strings.HasPrefix(callback.Data, "slider_set_"):
			err = b.handleSliderSet(callback, player)
		case strings.HasPrefix(callback.Data, "slider_go_"):
			err = b.handleSliderSubmit(callback, player)
		case strings.HasPrefix(callback.Data, "set_hour_"):
			err = b.handleHourChange(callback, player)
		default:
			return b.sendMessage(tgbotapi.NewMessage(chatID, "⚠️ Unknown action"))
		}
	}

	if err != nil {
		log.Printf("Error handling callback %q: %v", callback.Data, err)
		return b.sendMessage(tgbotapi.NewMessage(chatID, "❌ Something went wrong. Please try again later."))
	}
	return nil
}

func (b *Bot) handleNotifyToggle(callback *tgbotapi.CallbackQuery, player *models.Player) error {
	player.NotificationEnabled = callback.Data == "notify_on"
	if err := b.playerRepo.Update(player); err != nil {
		return fmt.Errorf("failed to update player: %v", err)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		settingsText(player),
		settingsKeyboard(player),
	)
	edit.ParseMode = "Markdown"
	return b.editMessage(edit)
}

func (b *Bot) handleHourChange(callback *tgbotapi.CallbackQuery, player *models.Player) error {
	hour, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "set_hour_"))
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid hour in callback data: %q", callback.Data)
	}

	player.NotificationHour = hour
	if err := b.playerRepo.Update(player); err != nil {
		return fmt.Errorf("failed to update player: %v", err)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		settingsText(player),
		settingsKeyboard(player),
	)
	edit.ParseMode = "Markdown"
	return b.editMessage(edit)
}

// settingsKeyboard builds the announce toggle and the hour presets
func settingsKeyboard(player *models.Player) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if player.NotificationEnabled {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔕 Disable announces", "notify_off"),
		))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔔 Enable announces", "notify_on"),
		))
	}

	var hourRow []tgbotapi.InlineKeyboardButton
	for _, hour := range []int{6, 9, 12, 15, 18, 21} {
		label := fmt.Sprintf("%d:00", hour)
		if hour == player.NotificationHour {
			label = "✓ " + label
		}
		hourRow = append(hourRow, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("set_hour_%d", hour)))
		if len(hourRow) == 3 {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(hourRow...))
			hourRow = nil
		}
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Menu", "main_menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// --- Slider ---

// sliderState loads the open session and builds the power-law scale
// over the current narrowed range
func (b *Bot) sliderState(player *models.Player) (*models.Puzzle, *models.GuessSession, engine.Scale, error) {
	puzzle, session, err := b.game.StartOrResume(player, game.Today())
	if err != nil {
		return nil, nil, engine.Scale{}, err
	}

	eng := b.game.Engine()
	base := engine.Range{Min: puzzle.RangeMin, Max: puzzle.RangeMax}
	narrowed := eng.NarrowRange(base, session.Guesses, puzzle.Amount)
	return puzzle, session, engine.NewScale(narrowed), nil
}

func (b *Bot) handleSliderOpen(callback *tgbotapi.CallbackQuery, player *models.Player) error {
	chatID := callback.Message.Chat.ID

	puzzle, session, scale, err := b.sliderState(player)
	if errors.Is(err, game.ErrNoPuzzle) {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "😴 No puzzle is scheduled for today."))
	}
	if err != nil {
		return err
	}
	if session.Revealed {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "Today's puzzle is already finished for you. See /result."))
	}

	// Стартуем с предложенной движком точки
	eng := b.game.Engine()
	base := engine.Range{Min: puzzle.RangeMin, Max: puzzle.RangeMax}
	start := eng.NextDefaultGuess(base, session.Guesses, puzzle.Amount)
	milli := clampMilli(int(math.Round(scale.Position(start) * 1000)))

	msg := tgbotapi.NewMessage(chatID, sliderText(scale, float64(milli)/1000, b.config.GaugeWidth))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = b.sliderKeyboard(scale, milli)
	return b.sendMessage(msg)
}

func (b *Bot) handleSliderSet(callback *tgbotapi.CallbackQuery, player *models.Player) error {
	milli, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "slider_set_"))
	if err != nil {
		return fmt.Errorf("invalid slider position in callback data: %v", err)
	}
	milli = clampMilli(milli)

	_, session, scale, err := b.sliderState(player)
	if err != nil {
		return err
	}
	if session.Revealed {
		edit := tgbotapi.NewEditMessageText(
			callback.Message.Chat.ID,
			callback.Message.MessageID,
			"Today's puzzle is already finished for you. See /result.",
		)
		return b.editMessage(edit)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		sliderText(scale, float64(milli)/1000, b.config.GaugeWidth),
		b.sliderKeyboard(scale, milli),
	)
	edit.ParseMode = "Markdown"
	return b.editMessage(edit)
}

func (b *Bot) handleSliderSubmit(callback *tgbotapi.CallbackQuery, player *models.Player) error {
	milli, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "slider_go_"))
	if err != nil {
		return fmt.Errorf("invalid slider position in callback data: %v", err)
	}

	_, session, scale, err := b.sliderState(player)
	if err != nil {
		return err
	}
	if session.Revealed {
		return b.sendMessage(tgbotapi.NewMessage(callback.Message.Chat.ID, "Today's puzzle is already finished for you. See /result."))
	}

	guess := scale.Value(float64(clampMilli(milli)) / 1000)
	return b.submitGuess(callback.Message.Chat.ID, player, guess)
}

// sliderKeyboard builds the arrow and submit buttons for a position.
// The position travels in the callback data, so the slider needs no
// server-side state.
func (b *Bot) sliderKeyboard(scale engine.Scale, milli int) tgbotapi.InlineKeyboardMarkup {
	coarse := b.config.SliderCoarseStep
	fine := b.config.SliderFineStep

	arrows := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏪", fmt.Sprintf("slider_set_%d", clampMilli(milli-coarse))),
		tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("slider_set_%d", clampMilli(milli-fine))),
		tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("slider_set_%d", clampMilli(milli+fine))),
		tgbotapi.NewInlineKeyboardButtonData("⏩", fmt.Sprintf("slider_set_%d", clampMilli(milli+coarse))),
	)
	submit := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("✅ Guess %s", formatDollars(scale.Value(float64(milli)/1000))),
			fmt.Sprintf("slider_go_%d", milli),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(arrows, submit)
}

// resultKeyboard is shown under any end-of-day verdict
func resultKeyboard() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📋 Share", CallbackData: "share"}, {Text: "🏆 Leaderboard", CallbackData: "leaderboard"}},
	}
}

// clampMilli keeps a slider position inside the 0..1000 travel
func clampMilli(m int) int {
	if m < 0 {
		return 0
	}
	if m > 1000 {
		return 1000
	}
	return m
}
