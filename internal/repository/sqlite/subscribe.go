package sqlite

import (
	"context"
	"fmt"

	"github.com/Houeta/garderie-watch/internal/repository"
)

const (
	subscribeQuery   = "INSERT OR IGNORE INTO subscriptions (chat_id) VALUES (?)"
	unsubscribeQuery = "DELETE FROM subscriptions WHERE chat_id = ?"
	listChatsQuery   = "SELECT chat_id FROM subscriptions ORDER BY chat_id"
)

// SubscribeChat registers a chat for crawl reports. Subscribing twice is a no-op.
func (r *Repository) SubscribeChat(ctx context.Context, chatID int64) error {
	return r.execChat(ctx, "repository.sqlite.SubscribeChat", subscribeQuery, chatID)
}

// UnsubscribeChat stops crawl reports for a chat. Unknown chats are ignored.
func (r *Repository) UnsubscribeChat(ctx context.Context, chatID int64) error {
	return r.execChat(ctx, "repository.sqlite.UnsubscribeChat", unsubscribeQuery, chatID)
}

func (r *Repository) execChat(ctx context.Context, opn, query string, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, query, chatID); err != nil {
		return fmt.Errorf("%s: %w: chat %d: %w", opn, repository.ErrStore, chatID, err)
	}
	return nil
}

// GetSubscribedChats lists the chats that receive crawl reports, in ascending order.
func (r *Repository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	const opn = "repository.sqlite.GetSubscribedChats"

	rows, err := r.db.QueryContext(ctx, listChatsQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w: failed to scan chat_id: %w", opn, repository.ErrStore, err)
		}
		chatIDs = append(chatIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: rows iteration error: %w", opn, repository.ErrStore, err)
	}

	return chatIDs, nil
}
