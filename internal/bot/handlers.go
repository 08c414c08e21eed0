package bot

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"
)

const (
	greetingMessage    = "Hello! Send /subscribe to receive new and updated daycare listings, /unsubscribe to stop."
	subscribedMessage  = "Subscribed. You will get a report after every crawl that finds changes."
	unsubscribedText   = "Unsubscribed. You will not receive reports anymore."
	subscriptionFailed = "Sorry, something went wrong. Please try again later."
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	if err := ctx.Send(greetingMessage); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// subscribeHandler process command /subscribe.
func (b *Bot) subscribeHandler(ctx telebot.Context) error {
	return b.reply(ctx, b.subscribe(ctx.Chat().ID))
}

// unsubscribeHandler process command /unsubscribe.
func (b *Bot) unsubscribeHandler(ctx telebot.Context) error {
	return b.reply(ctx, b.unsubscribe(ctx.Chat().ID))
}

func (b *Bot) reply(ctx telebot.Context, text string) error {
	if err := ctx.Send(text); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// subscribe stores the chat and returns the reply text.
func (b *Bot) subscribe(chatID int64) string {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.subs.SubscribeChat(ctx, chatID); err != nil {
		b.log.Error("Failed to subscribe chat", "chat_id", chatID, "error", err)
		return subscriptionFailed
	}
	b.log.Info("Chat subscribed", "chat_id", chatID)
	return subscribedMessage
}

// unsubscribe removes the chat and returns the reply text.
func (b *Bot) unsubscribe(chatID int64) string {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.subs.UnsubscribeChat(ctx, chatID); err != nil {
		b.log.Error("Failed to unsubscribe chat", "chat_id", chatID, "error", err)
		return subscriptionFailed
	}
	b.log.Info("Chat unsubscribed", "chat_id", chatID)
	return unsubscribedText
}
