package bot

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/suhailxyz/aipacdle/internal/ai"
	"github.com/suhailxyz/aipacdle/internal/database"
	"github.com/suhailxyz/aipacdle/internal/game"
	"github.com/suhailxyz/aipacdle/internal/scheduler"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot represents the Telegram bot application
type Bot struct {
	api              *tgbotapi.BotAPI
	token            string
	game             *game.Service
	playerRepo       *database.PlayerRepository
	puzzleRepo       *database.PuzzleRepository
	resultRepo       *database.ResultRepository
	chatGPT          *ai.ChatGPT
	schedulerEnabled bool
	scheduler        *scheduler.Scheduler
	adminUserIDs     map[int64]bool
	config           *BotConfig

	mu                 sync.Mutex
	awaitingFileUpload map[int64]bool
}

// New creates a new bot instance
func New() (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	// Без ключа OpenAI бот отвечает на /hint запасной подсказкой
	var chatGPT *ai.ChatGPT
	if os.Getenv("OPENAI_API_KEY") != "" {
		var err error
		chatGPT, err = ai.New()
		if err != nil {
			log.Printf("Warning: Unable to initialize OpenAI client: %v", err)
		}
	} else {
		log.Println("OPENAI_API_KEY is not set, /hint falls back to stored descriptions")
	}

	schedulerEnabled := os.Getenv("ENABLE_SCHEDULER") != "false"

	bot := &Bot{
		token:              token,
		game:               game.New(),
		playerRepo:         database.NewPlayerRepository(),
		puzzleRepo:         database.NewPuzzleRepository(),
		resultRepo:         database.NewResultRepository(),
		chatGPT:            chatGPT,
		schedulerEnabled:   schedulerEnabled,
		adminUserIDs:       make(map[int64]bool),
		config:             DefaultConfig(),
		awaitingFileUpload: make(map[int64]bool),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			bot.adminUserIDs[id] = true
		}
	}

	return bot, nil
}

// Start initializes the Telegram session and runs the update loop.
// Blocks until Stop is called.
func (b *Bot) Start() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	if b.schedulerEnabled {
		b.scheduler = scheduler.New(b)
		b.scheduler.Start()
		log.Println("Notification scheduler started")
	}

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// sendMessage sends any chattable and logs failures
func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	_, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending message: %v", err)
	}
	return err
}

// editMessage edits a message in place and logs failures
func (b *Bot) editMessage(msg tgbotapi.EditMessageTextConfig) error {
	_, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error editing message: %v", err)
	}
	return err
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

func (b *Bot) setAwaitingFile(userID int64, waiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if waiting {
		b.awaitingFileUpload[userID] = true
	} else {
		delete(b.awaitingFileUpload, userID)
	}
}

func (b *Bot) isAwaitingFile(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingFileUpload[userID]
}

// SendDailyPuzzle implements the scheduler.Notifier interface: the
// morning announce that a new puzzle is live
func (b *Bot) SendDailyPuzzle(telegramID int64, puzzle *models.Puzzle) error {
	text := fmt.Sprintf("🗞 Today's puzzle is live!\n\n*%s*\n\nHow many dollars? Open it with /play", puzzle.Title)
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ParseMode = "Markdown"
	return b.sendMessage(msg)
}

// SendReminder implements the scheduler.Notifier interface: the evening
// nudge for a day left unfinished
func (b *Bot) SendReminder(telegramID int64, guessesLeft int) error {
	text := fmt.Sprintf("⏳ Your puzzle is still open — %d guesses left before midnight UTC. /play", guessesLeft)
	return b.sendMessage(tgbotapi.NewMessage(telegramID, text))
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		if err := b.HandleCallback(update.CallbackQuery); err != nil {
			log.Printf("Error handling callback %q: %v", update.CallbackQuery.Data, err)
		}
	}
}

// handleMessage routes a plain message: command, admin file upload, or
// a bare dollar amount aimed at the open session
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	if message.IsCommand() {
		if err := b.HandleCommand(message); err != nil {
			log.Printf("Error handling /%s: %v", message.Command(), err)
			b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "❌ Something went wrong. Please try again later."))
		}
		return
	}

	if message.Document != nil && b.isAwaitingFile(message.From.ID) {
		b.setAwaitingFile(message.From.ID, false)
		if err := b.processPuzzleFile(message); err != nil {
			log.Printf("Error importing catalog: %v", err)
			b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("❌ Import failed: %v", err)))
		}
		return
	}

	// Голое число в чате — это попытка
	if looksLikeAmount(message.Text) {
		if err := b.handleAmountText(message); err != nil {
			log.Printf("Error handling guess text: %v", err)
			b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "❌ Something went wrong. Please try again later."))
		}
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "Send a dollar amount to guess, or use /help for the list of commands.")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.sendMessage(msg)
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Main menu — choose an option:")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Play today", CallbackData: "play"},
			{Text: "📊 My stats", CallbackData: "stats"},
		},
		{
			{Text: "🏆 Leaderboard", CallbackData: "leaderboard"},
			{Text: "⚙️ Settings", CallbackData: "settings"},
		},
	}
}

// playKeyboard returns the buttons shown under the open puzzle card
func (b *Bot) playKeyboard() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎚 Slider", CallbackData: "slider_open"},
			{Text: "💡 Hint", CallbackData: "hint"},
		},
		{
			{Text: "🏳️ Give up", CallbackData: "giveup"},
			{Text: "« Menu", CallbackData: "main_menu"},
		},
	}
}
