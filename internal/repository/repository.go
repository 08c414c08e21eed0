package repository

import (
	"context"
	"errors"

	"github.com/Houeta/garderie-watch/internal/models"
)

var (
	// ErrRecordNotFound is returned by FindByID when no record has the given identifier.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStore wraps every lookup or write failure of a record store.
	ErrStore = errors.New("store error")
)

// RecordStore persists listings keyed by their site identifier.
type RecordStore interface {
	// FindByID returns the stored record or ErrRecordNotFound.
	FindByID(ctx context.Context, id int64) (*models.Record, error)
	// Create stores a new record for id.
	Create(ctx context.Context, id int64, listing models.Listing) (*models.Record, error)
	// Update overwrites the listing of an existing record and bumps its revision.
	Update(ctx context.Context, existing *models.Record, listing models.Listing) (*models.Record, error)
}

// SubscriptionStore keeps the chats that receive crawl reports.
type SubscriptionStore interface {
	SubscribeChat(ctx context.Context, chatID int64) error
	UnsubscribeChat(ctx context.Context, chatID int64) error
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}

// Store is what a storage backend provides to the application.
type Store interface {
	RecordStore
	SubscriptionStore
	Close() error
}
