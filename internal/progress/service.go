package progress

import (
	"context"

	"throwerx-backend/internal/account"
	"throwerx-backend/internal/storage"
)

// Service overwrites a player's progress record inside the shared
// single-writer store cycle.
type Service struct {
	records *storage.Synced
}

func NewService(records *storage.Synced) *Service {
	return &Service{records: records}
}

// Save replaces the account's entire progress record with the given one.
// This is a destructive overwrite: a field missing from the payload arrives
// here as nil and is persisted as null, erasing the previous value. Existing
// clients rely on that, so it is kept even though it looks like a defect.
func (s *Service) Save(ctx context.Context, username string, p storage.Progress) error {
	return s.records.Update(ctx, func(accounts storage.Accounts) error {
		acc, exists := accounts[username]
		if !exists {
			return account.ErrInvalidToken
		}

		acc.PlayerData = p
		accounts[username] = acc
		return nil
	})
}
