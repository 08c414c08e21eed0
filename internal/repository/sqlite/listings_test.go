package sqlite_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/garderie-watch/internal/models"
	"github.com/Houeta/garderie-watch/internal/repository"
	"github.com/Houeta/garderie-watch/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Integration Tests (using a real temporary database)
// =============================================================================

// newTestDB is a helper function that creates a temporary database for a test.
func newTestDB(t *testing.T) *sqlite.Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := sqlite.NewRepository(t.Context(), logger, dbPath)
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		if err = repo.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return repo
}

func sampleListing(lastUpdate time.Time) models.Listing {
	return models.Listing{
		Href:        "/garderie/1234-les-petits-pas.html",
		Title:       "Les Petits Pas",
		Distance:    1.4,
		Type:        "CPE",
		ContactName: "Marie Tremblay",
		Email:       "info@petitspas.example",
		Phone:       "514-555-0101",
		Address:     "12 rue Principale\nMontréal",
		LastUpdate:  lastUpdate,
		Places: []models.Place{
			{Count: 2, AgeGroup: "18 mois - 5 ans", AvailableFrom: "2024-09-01", PricePerUnit: 8.7},
		},
	}
}

// TestRepository_Integration_Lifecycle walks a listing through create, lookup and update.
func TestRepository_Integration_Lifecycle(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	firstUpdate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	secondUpdate := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

	t.Run("find_in_empty_db", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 1234)
		require.ErrorIs(t, err, repository.ErrRecordNotFound)
	})

	t.Run("create", func(t *testing.T) {
		rec, err := repo.Create(ctx, 1234, sampleListing(firstUpdate))
		require.NoError(t, err)
		assert.Equal(t, int64(1234), rec.ID)
		assert.True(t, rec.IsNew())
		assert.False(t, rec.DateUpdated.IsZero())
	})

	t.Run("create_duplicate_fails", func(t *testing.T) {
		_, err := repo.Create(ctx, 1234, sampleListing(firstUpdate))
		require.ErrorIs(t, err, repository.ErrStore)
	})

	t.Run("find_after_create", func(t *testing.T) {
		rec, err := repo.FindByID(ctx, 1234)
		require.NoError(t, err)
		want := sampleListing(firstUpdate)
		assert.Equal(t, want.Title, rec.Title)
		assert.Equal(t, want.Address, rec.Address)
		assert.InDelta(t, want.Distance, rec.Distance, 1e-9)
		assert.Equal(t, want.Places, rec.Places)
		assert.True(t, firstUpdate.Equal(rec.LastUpdate), "last update %v", rec.LastUpdate)
		assert.Equal(t, 0, rec.Revision)
	})

	t.Run("update", func(t *testing.T) {
		existing, err := repo.FindByID(ctx, 1234)
		require.NoError(t, err)

		changed := sampleListing(secondUpdate)
		changed.Places = nil
		rec, err := repo.Update(ctx, existing, changed)
		require.NoError(t, err)
		assert.Equal(t, int64(1234), rec.ID)
		assert.Equal(t, 1, rec.Revision)
		assert.False(t, rec.IsNew())

		stored, err := repo.FindByID(ctx, 1234)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Revision)
		assert.True(t, secondUpdate.Equal(stored.LastUpdate))
		assert.Empty(t, stored.Places)
	})

	t.Run("absent_last_update_is_stored_as_null", func(t *testing.T) {
		_, err := repo.Create(ctx, 99, sampleListing(time.Time{}))
		require.NoError(t, err)

		stored, err := repo.FindByID(ctx, 99)
		require.NoError(t, err)
		assert.True(t, stored.LastUpdate.IsZero())
	})

	t.Run("update_missing_record", func(t *testing.T) {
		_, err := repo.Update(ctx, &models.Record{ID: 42}, sampleListing(firstUpdate))
		require.ErrorIs(t, err, repository.ErrRecordNotFound)
	})
}

// =============================================================================
// Unit Tests (using sqlmock for failure scenarios)
// =============================================================================

// newMockedRepo creates a repository with a mocked database connection for testing failures.
func newMockedRepo(t *testing.T) (*sqlite.Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := sqlite.NewForTest(mockDB)

	t.Cleanup(func() { mockDB.Close() })

	return repo, mock
}

var listingColumns = []string{
	"id", "href", "title", "distance", "type", "contact_name", "email", "phone", "address",
	"last_update", "places", "revision", "date_updated",
}

func TestRepository_FindByID_Failures(t *testing.T) {
	ctx := t.Context()

	t.Run("error_on_query", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT id, href").WithArgs(int64(7)).WillReturnError(assert.AnError)

		_, err := repo.FindByID(ctx, 7)

		require.ErrorIs(t, err, repository.ErrStore)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "repository.sqlite.FindByID")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error_on_places_decoding", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		rows := sqlmock.NewRows(listingColumns).AddRow(
			7, "/g/7-x.html", "X", 1.0, "CPE", "", "", "", "", nil, "{not json", 0, time.Now(),
		)
		mock.ExpectQuery("SELECT id, href").WithArgs(int64(7)).WillReturnRows(rows)

		_, err := repo.FindByID(ctx, 7)

		require.ErrorIs(t, err, repository.ErrStore)
		require.ErrorContains(t, err, "failed to decode places")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Create_Failure(t *testing.T) {
	repo, mock := newMockedRepo(t)
	mock.ExpectExec("INSERT INTO listings").WillReturnError(assert.AnError)

	_, err := repo.Create(t.Context(), 7, sampleListing(time.Time{}))

	require.ErrorIs(t, err, repository.ErrStore)
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_Failures(t *testing.T) {
	ctx := t.Context()
	existing := &models.Record{ID: 7, Revision: 3}

	t.Run("error_on_exec", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE listings SET").WillReturnError(assert.AnError)

		_, err := repo.Update(ctx, existing, sampleListing(time.Time{}))

		require.ErrorIs(t, err, repository.ErrStore)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error_on_rows_affected", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE listings SET").WillReturnResult(sqlmock.NewErrorResult(assert.AnError))

		_, err := repo.Update(ctx, existing, sampleListing(time.Time{}))

		require.ErrorIs(t, err, repository.ErrStore)
		require.ErrorContains(t, err, "failed to read affected rows")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success_bumps_revision", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE listings SET").WillReturnResult(sqlmock.NewResult(0, 1))

		rec, err := repo.Update(ctx, existing, sampleListing(time.Time{}))

		require.NoError(t, err)
		assert.Equal(t, 4, rec.Revision)
		assert.Equal(t, int64(7), rec.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
