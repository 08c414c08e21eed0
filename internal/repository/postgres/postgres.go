// Package postgres stores listings and chat subscriptions in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Houeta/garderie-watch/internal/models"
	"github.com/Houeta/garderie-watch/internal/repository"
)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Repository implements repository.Store on a pgx connection pool.
type Repository struct {
	pool pool
	log  *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id BIGINT PRIMARY KEY,
	href TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	distance DOUBLE PRECISION NOT NULL DEFAULT 0,
	type TEXT NOT NULL DEFAULT '',
	contact_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	last_update TIMESTAMPTZ,
	places JSONB NOT NULL DEFAULT '[]',
	revision INTEGER NOT NULL DEFAULT 0,
	date_updated TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
	chat_id BIGINT PRIMARY KEY
);`

// NewRepository connects to dsn and applies the schema.
func NewRepository(ctx context.Context, log *slog.Logger, dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("database url is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pgPool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err = pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	repo := &Repository{pool: pgPool, log: log}
	if err = repo.migrate(ctx); err != nil {
		pgPool.Close()
		return nil, err
	}

	return repo, nil
}

// NewWithPool builds a repository from an existing pool (primarily for testing).
func NewWithPool(p pool, log *slog.Logger) *Repository {
	return &Repository{pool: p, log: log}
}

func (r *Repository) migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("DB schema initialization error: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// FindByID returns the listing stored under id, or repository.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Record, error) {
	const opn = "repository.postgres.FindByID"

	var (
		rec        models.Record
		lastUpdate *time.Time
		places     []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, href, title, distance, type, contact_name, email, phone, address,
			last_update, places, revision, date_updated
		FROM listings WHERE id = $1`, id,
	).Scan(
		&rec.ID, &rec.Href, &rec.Title, &rec.Distance, &rec.Type, &rec.ContactName,
		&rec.Email, &rec.Phone, &rec.Address, &lastUpdate, &places, &rec.Revision, &rec.DateUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, fmt.Errorf("%s: %w: failed to query listing %d: %w", opn, repository.ErrStore, id, err)
	}

	if lastUpdate != nil {
		rec.LastUpdate = *lastUpdate
	}
	if err = json.Unmarshal(places, &rec.Places); err != nil {
		return nil, fmt.Errorf("%s: %w: failed to decode places of listing %d: %w", opn, repository.ErrStore, id, err)
	}

	return &rec, nil
}

// Create inserts a new listing with revision 0.
func (r *Repository) Create(ctx context.Context, id int64, listing models.Listing) (*models.Record, error) {
	const opn = "repository.postgres.Create"

	places, err := encodePlaces(listing.Places)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}

	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx,
		`INSERT INTO listings (id, href, title, distance, type, contact_name, email, phone, address,
			last_update, places, revision, date_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12)`,
		id, listing.Href, listing.Title, listing.Distance, listing.Type, listing.ContactName,
		listing.Email, listing.Phone, listing.Address, optionalTime(listing.LastUpdate), places, now,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to insert listing %d: %w", opn, repository.ErrStore, id, err)
	}

	return &models.Record{ID: id, Listing: listing, DateUpdated: now}, nil
}

// Update overwrites every listing field of an existing record in place.
func (r *Repository) Update(
	ctx context.Context,
	existing *models.Record,
	listing models.Listing,
) (*models.Record, error) {
	const opn = "repository.postgres.Update"

	places, err := encodePlaces(listing.Places)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}

	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE listings SET href = $1, title = $2, distance = $3, type = $4, contact_name = $5,
			email = $6, phone = $7, address = $8, last_update = $9, places = $10,
			revision = revision + 1, date_updated = $11
		WHERE id = $12`,
		listing.Href, listing.Title, listing.Distance, listing.Type, listing.ContactName,
		listing.Email, listing.Phone, listing.Address, optionalTime(listing.LastUpdate), places, now, existing.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to update listing %d: %w", opn, repository.ErrStore, existing.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%s: listing %d: %w", opn, existing.ID, repository.ErrRecordNotFound)
	}

	return &models.Record{
		ID:          existing.ID,
		Listing:     listing,
		Revision:    existing.Revision + 1,
		DateUpdated: now,
	}, nil
}

// SubscribeChat adds the chat ID to the subscriptions table.
func (r *Repository) SubscribeChat(ctx context.Context, chatID int64) error {
	const opn = "repository.postgres.SubscribeChat"
	_, err := r.pool.Exec(ctx, "INSERT INTO subscriptions (chat_id) VALUES ($1) ON CONFLICT DO NOTHING", chatID)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}
	return nil
}

// UnsubscribeChat deletes the chat ID from the subscriptions table.
func (r *Repository) UnsubscribeChat(ctx context.Context, chatID int64) error {
	const opn = "repository.postgres.UnsubscribeChat"
	_, err := r.pool.Exec(ctx, "DELETE FROM subscriptions WHERE chat_id = $1", chatID)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}
	return nil
}

// GetSubscribedChats returns all subscribed chat IDs.
func (r *Repository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	const opn = "repository.postgres.GetSubscribedChats"
	rows, err := r.pool.Query(ctx, "SELECT chat_id FROM subscriptions ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}
	chatIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to collect chat ids: %w", opn, repository.ErrStore, err)
	}
	return chatIDs, nil
}

func encodePlaces(places []models.Place) ([]byte, error) {
	if places == nil {
		places = []models.Place{}
	}
	data, err := json.Marshal(places)
	if err != nil {
		return nil, fmt.Errorf("failed to encode places: %w", err)
	}
	return data, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
