package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/garderie-watch/internal/models"
	"github.com/Houeta/garderie-watch/internal/repository"
)

const selectListing = `SELECT id, href, title, distance, type, contact_name, email, phone, address,
	last_update, places, revision, date_updated FROM listings WHERE id = ?`

// FindByID returns the listing stored under id, or repository.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Record, error) {
	const opn = "repository.sqlite.FindByID"

	var (
		rec        models.Record
		lastUpdate sql.NullTime
		places     string
	)
	err := r.db.QueryRowContext(ctx, selectListing, id).Scan(
		&rec.ID, &rec.Href, &rec.Title, &rec.Distance, &rec.Type, &rec.ContactName,
		&rec.Email, &rec.Phone, &rec.Address, &lastUpdate, &places, &rec.Revision, &rec.DateUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, fmt.Errorf("%s: %w: failed to query listing %d: %w", opn, repository.ErrStore, id, err)
	}

	if lastUpdate.Valid {
		rec.LastUpdate = lastUpdate.Time
	}
	if err = json.Unmarshal([]byte(places), &rec.Places); err != nil {
		return nil, fmt.Errorf("%s: %w: failed to decode places of listing %d: %w", opn, repository.ErrStore, id, err)
	}

	return &rec, nil
}

// Create inserts a new listing with revision 0.
func (r *Repository) Create(ctx context.Context, id int64, listing models.Listing) (*models.Record, error) {
	const opn = "repository.sqlite.Create"

	places, err := encodePlaces(listing.Places)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO listings (id, href, title, distance, type, contact_name, email, phone, address,
			last_update, places, revision, date_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, listing.Href, listing.Title, listing.Distance, listing.Type, listing.ContactName,
		listing.Email, listing.Phone, listing.Address, nullTime(listing.LastUpdate), places, now,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to insert listing %d: %w", opn, repository.ErrStore, id, err)
	}

	return &models.Record{ID: id, Listing: listing, Revision: 0, DateUpdated: now}, nil
}

// Update overwrites every listing field of an existing record in place.
func (r *Repository) Update(
	ctx context.Context,
	existing *models.Record,
	listing models.Listing,
) (*models.Record, error) {
	const opn = "repository.sqlite.Update"

	places, err := encodePlaces(listing.Places)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opn, repository.ErrStore, err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET href = ?, title = ?, distance = ?, type = ?, contact_name = ?, email = ?,
			phone = ?, address = ?, last_update = ?, places = ?, revision = revision + 1, date_updated = ?
		WHERE id = ?`,
		listing.Href, listing.Title, listing.Distance, listing.Type, listing.ContactName, listing.Email,
		listing.Phone, listing.Address, nullTime(listing.LastUpdate), places, now, existing.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to update listing %d: %w", opn, repository.ErrStore, existing.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: failed to read affected rows: %w", opn, repository.ErrStore, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s: listing %d: %w", opn, existing.ID, repository.ErrRecordNotFound)
	}

	return &models.Record{
		ID:          existing.ID,
		Listing:     listing,
		Revision:    existing.Revision + 1,
		DateUpdated: now,
	}, nil
}

func encodePlaces(places []models.Place) (string, error) {
	if places == nil {
		places = []models.Place{}
	}
	data, err := json.Marshal(places)
	if err != nil {
		return "", fmt.Errorf("failed to encode places: %w", err)
	}
	return string(data), nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
