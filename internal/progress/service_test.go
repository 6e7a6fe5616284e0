package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throwerx-backend/internal/account"
	"throwerx-backend/internal/storage"
)

func seededRecords(t *testing.T) *storage.Synced {
	t.Helper()
	store := storage.NewMemoryStore()
	records := storage.NewSynced(store)

	err := records.Update(context.Background(), func(accounts storage.Accounts) error {
		accounts["alice"] = storage.Account{
			PasswordHash: "hash",
			Token:        "token-a",
			PlayerData:   storage.DefaultProgress(),
		}
		return nil
	})
	require.NoError(t, err)
	return records
}

func progressOf(t *testing.T, records *storage.Synced, username string) storage.Progress {
	t.Helper()
	var p storage.Progress
	err := records.View(context.Background(), func(accounts storage.Accounts) error {
		acc, exists := accounts[username]
		require.True(t, exists)
		p = acc.PlayerData
		return nil
	})
	require.NoError(t, err)
	return p
}

func TestService_SaveReplacesAllFields(t *testing.T) {
	records := seededRecords(t)
	service := NewService(records)

	level, force, coins := 5, 12, 100
	stone := "large"
	err := service.Save(context.Background(), "alice", storage.Progress{
		Level: &level, Force: &force, Coins: &coins, StoneType: &stone,
	})
	require.NoError(t, err)

	saved := progressOf(t, records, "alice")
	assert.Equal(t, 5, *saved.Level)
	assert.Equal(t, 12, *saved.Force)
	assert.Equal(t, 100, *saved.Coins)
	assert.Equal(t, "large", *saved.StoneType)
}

func TestService_SaveIsIdempotent(t *testing.T) {
	records := seededRecords(t)
	service := NewService(records)

	level, force, coins := 2, 11, 5
	stone := "medium"
	payload := storage.Progress{Level: &level, Force: &force, Coins: &coins, StoneType: &stone}

	require.NoError(t, service.Save(context.Background(), "alice", payload))
	once := progressOf(t, records, "alice")

	require.NoError(t, service.Save(context.Background(), "alice", payload))
	twice := progressOf(t, records, "alice")

	assert.Equal(t, once, twice)
}

func TestService_SaveOverwritesOmittedFieldsWithNull(t *testing.T) {
	records := seededRecords(t)
	service := NewService(records)

	// payload carrying only level: the other three fields are erased, not
	// merged with the previous record
	level := 7
	require.NoError(t, service.Save(context.Background(), "alice", storage.Progress{Level: &level}))

	saved := progressOf(t, records, "alice")
	require.NotNil(t, saved.Level)
	assert.Equal(t, 7, *saved.Level)
	assert.Nil(t, saved.Force)
	assert.Nil(t, saved.Coins)
	assert.Nil(t, saved.StoneType)
}

func TestService_SaveUnknownAccount(t *testing.T) {
	records := seededRecords(t)
	service := NewService(records)

	err := service.Save(context.Background(), "nobody", storage.DefaultProgress())
	assert.ErrorIs(t, err, account.ErrInvalidToken)

	// alice is untouched
	saved := progressOf(t, records, "alice")
	require.NotNil(t, saved.Level)
	assert.Equal(t, 1, *saved.Level)
}
