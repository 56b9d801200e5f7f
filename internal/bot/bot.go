package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"habitloop/internal/repository"
	"habitloop/internal/service"
)

// Bot is the Telegram reminder channel. It is a read/notify surface only:
// habits are created and completed through the HTTP API, the bot delivers
// daily summaries and answers a few lookup commands.
type Bot struct {
	api         *tgbotapi.BotAPI
	userRepo    *repository.UserRepository
	reminderSvc *service.ReminderService
}

func New(token string, userRepo *repository.UserRepository, reminderSvc *service.ReminderService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:         api,
		userRepo:    userRepo,
		reminderSvc: reminderSvc,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands here. Try /help.")
	}

	log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "link":
		return b.handleLink(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "streaks":
		return b.handleStreaks(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I deliver your daily habit reminders.</b>\n\nCommands:\n"+
			"• /link &lt;account-id&gt; — connect this chat to your HabitLoop account\n"+
			"• /today — today's habits and anything overdue\n"+
			"• /streaks — current streak counters\n"+
			"• /help — these hints",
		html.EscapeString(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Hints</b>\n" +
		"• /link &lt;account-id&gt; — connect this chat to your account\n" +
		"• /today — today's summary on demand\n" +
		"• /streaks — streak counters, longest first\n" +
		"Habits themselves are managed in the app; completions happen there too."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Send your account id: /link 42")
	}

	userID64, err := strconv.ParseUint(args, 10, 64)
	if err != nil || userID64 == 0 {
		return b.sendText(msg.Chat.ID, "The account id must be a number.")
	}

	user, err := b.userRepo.LinkTelegram(ctx, uint(userID64), msg.From.ID, strings.TrimSpace(msg.From.FirstName))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "No account with that id.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not link: %s", html.EscapeString(err.Error())))
	}

	log.Printf("[info] telegram linked user=%d chat=%d", user.ID, msg.From.ID)
	return b.sendText(msg.Chat.ID, "✅ Linked. You will get a daily summary here.")
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.userRepo.FindByTelegramID(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "This chat is not linked yet. Use /link <account-id>.")
		}
		return err
	}

	text, err := b.reminderSvc.DailySummary(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the summary: %s", html.EscapeString(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStreaks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.userRepo.FindByTelegramID(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "This chat is not linked yet. Use /link <account-id>.")
		}
		return err
	}

	text, err := b.reminderSvc.StreakSummary(ctx, *user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the summary: %s", html.EscapeString(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

// SendDailyReports sends a summary to every linked user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListLinked(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.reminderSvc.DailySummary(ctx, user, now)
		if err != nil {
			log.Printf("build summary for user %d: %v", user.ID, err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("send summary to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}
