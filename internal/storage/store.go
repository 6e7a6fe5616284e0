package storage

import "context"

// Progress is the per-account game-state snapshot. Fields are pointers so a
// save payload that omits a field persists it as null, matching the wire
// behavior clients already depend on.
type Progress struct {
	Level     *int    `json:"level"`
	Force     *int    `json:"force"`
	Coins     *int    `json:"coins"`
	StoneType *string `json:"stone_type"`
}

// Account is one record in the store. The password field holds a bcrypt
// hash, never a plaintext password. The token is issued once at registration
// and never rotates.
type Account struct {
	PasswordHash string   `json:"password"`
	Token        string   `json:"token"`
	PlayerData   Progress `json:"player_data"`
}

// Accounts maps a case-sensitive username to its record.
type Accounts map[string]Account

// Store persists the full account map. Every mutation is a whole-snapshot
// rewrite; partial updates are not part of the contract.
type Store interface {
	Load(ctx context.Context) (Accounts, error)
	Save(ctx context.Context, accounts Accounts) error
}

// DefaultProgress is the record a freshly registered account starts with.
func DefaultProgress() Progress {
	level, force, coins := 1, 10, 0
	stone := "small"
	return Progress{Level: &level, Force: &force, Coins: &coins, StoneType: &stone}
}
