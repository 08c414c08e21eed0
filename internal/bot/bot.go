package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/Houeta/garderie-watch/internal/metrics"
	"github.com/Houeta/garderie-watch/internal/models"
	"github.com/Houeta/garderie-watch/internal/repository"
)

// handlerTimeout bounds the store calls made from a command handler.
const handlerTimeout = 5 * time.Second

// Bot contains the bot API instance and other information.
type Bot struct {
	bot     API
	log     *slog.Logger
	subs    repository.SubscriptionStore
	baseURL string
}

func NewBot(
	log *slog.Logger,
	token string,
	poller time.Duration,
	subs repository.SubscriptionStore,
	baseURL string,
) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := &Bot{bot: bot, log: log, subs: subs, baseURL: baseURL}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/subscribe", b.subscribeHandler)
	b.bot.Handle("/unsubscribe", b.unsubscribeHandler)
}

// Notify sends the report of a crawl to every subscribed chat.
// Nothing is sent when the crawl found no change and no failure.
func (b *Bot) Notify(ctx context.Context, result *models.CrawlResult) error {
	const opn = "bot.Notify"
	log := b.log.With("op", opn)

	if result == nil || (len(result.Records) == 0 && len(result.Failures) == 0) {
		log.InfoContext(ctx, "Nothing to report")
		return nil
	}

	messages, err := RenderReport(result, b.baseURL)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	chats, err := b.subs.GetSubscribedChats(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to load subscribed chats: %w", opn, err)
	}
	log.InfoContext(ctx, "Sending report", "records", len(result.Records), "chats", len(chats), "messages", len(messages))

	var errs []error
	for _, chatID := range chats {
		if err = b.sendAll(chatID, messages); err != nil {
			metrics.ObserveNotification("failed")
			log.ErrorContext(ctx, "Failed to deliver report", "chat_id", chatID, "error", err)
			errs = append(errs, err)
			continue
		}
		metrics.ObserveNotification("sent")
	}

	if err = errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

func (b *Bot) sendAll(chatID int64, messages []string) error {
	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true}
	for _, msg := range messages {
		if _, err := b.bot.Send(&telebot.Chat{ID: chatID}, msg, opts); err != nil {
			return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
		}
	}
	return nil
}
