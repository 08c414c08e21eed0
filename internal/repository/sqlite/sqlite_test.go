package sqlite_test

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Houeta/garderie-watch/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewRepository_InvalidPath(t *testing.T) {
	_, err := sqlite.NewRepository(t.Context(), discardLogger(), "/invalid/path/to/listings.db")
	require.Error(t, err)
}

func TestRepository_Close(t *testing.T) {
	repo, err := sqlite.NewRepository(t.Context(), discardLogger(), filepath.Join(t.TempDir(), "close.db"))
	require.NoError(t, err)

	require.NoError(t, repo.Close())
	require.Error(t, repo.DB().PingContext(t.Context()), "connection must be closed")
}

// TestSchemaInitialization checks the listings columns the stores read and write.
func TestSchemaInitialization(t *testing.T) {
	repo := newTestDB(t)

	rows, err := repo.DB().QueryContext(t.Context(), "SELECT name FROM pragma_table_info('listings') ORDER BY cid")
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{
		"id", "href", "title", "distance", "type", "contact_name", "email", "phone", "address",
		"last_update", "places", "revision", "date_updated",
	}, columns)

	var subscriptions int
	require.NoError(t, repo.DB().QueryRowContext(t.Context(),
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'subscriptions'").Scan(&subscriptions))
	assert.Equal(t, 1, subscriptions)
}

// TestNewRepository_Reopen checks that schema init keeps the listings of an existing file.
func TestNewRepository_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	lastUpdate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := sqlite.NewRepository(t.Context(), discardLogger(), dbPath)
	require.NoError(t, err)
	_, err = first.Create(t.Context(), 1234, sampleListing(lastUpdate))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlite.NewRepository(t.Context(), discardLogger(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	rec, err := second.FindByID(t.Context(), 1234)
	require.NoError(t, err)
	assert.True(t, rec.LastUpdate.Equal(lastUpdate))
	assert.Equal(t, 0, rec.Revision)
}
