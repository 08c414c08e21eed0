package sqlite_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/garderie-watch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSubscriptions_Integration checks that report recipients survive duplicates and removals.
func TestSubscriptions_Integration(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	chats, err := repo.GetSubscribedChats(ctx)
	require.NoError(t, err)
	assert.Empty(t, chats)

	for _, id := range []int64{-1001234, 42, 42, 7} {
		require.NoError(t, repo.SubscribeChat(ctx, id))
	}

	chats, err = repo.GetSubscribedChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1001234, 7, 42}, chats)

	require.NoError(t, repo.UnsubscribeChat(ctx, 42))
	require.NoError(t, repo.UnsubscribeChat(ctx, 99), "unknown chat")

	chats, err = repo.GetSubscribedChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1001234, 7}, chats)
}

func TestSubscriptions_ExecFailures(t *testing.T) {
	const chatID = int64(-1001234)

	testCases := []struct {
		name  string
		query string
		call  func(repo repository.SubscriptionStore) error
		op    string
	}{
		{
			name:  "subscribe",
			query: "INSERT OR IGNORE INTO subscriptions",
			call: func(repo repository.SubscriptionStore) error {
				return repo.SubscribeChat(t.Context(), chatID)
			},
			op: "repository.sqlite.SubscribeChat",
		},
		{
			name:  "unsubscribe",
			query: "DELETE FROM subscriptions WHERE chat_id",
			call: func(repo repository.SubscriptionStore) error {
				return repo.UnsubscribeChat(t.Context(), chatID)
			},
			op: "repository.sqlite.UnsubscribeChat",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockedRepo(t)
			mock.ExpectExec(tc.query).WithArgs(chatID).WillReturnError(assert.AnError)

			err := tc.call(repo)

			require.ErrorIs(t, err, repository.ErrStore)
			require.ErrorIs(t, err, assert.AnError)
			require.ErrorContains(t, err, tc.op)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetSubscribedChats_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantMsg string
	}{
		{
			name: "query",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT chat_id FROM subscriptions").WillReturnError(assert.AnError)
			},
			wantMsg: "repository.sqlite.GetSubscribedChats",
		},
		{
			name: "scan",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT chat_id FROM subscriptions").
					WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow("not-a-chat"))
			},
			wantMsg: "failed to scan chat_id",
		},
		{
			name: "rows",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT chat_id FROM subscriptions").
					WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow(int64(7)).RowError(0, assert.AnError))
			},
			wantMsg: "rows iteration error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockedRepo(t)
			tc.setup(mock)

			chats, err := repo.GetSubscribedChats(t.Context())

			assert.Nil(t, chats)
			require.ErrorIs(t, err, repository.ErrStore)
			require.ErrorContains(t, err, tc.wantMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
