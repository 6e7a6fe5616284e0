package storage

import "context"

// MemoryStore is an in-process Store used by tests and local experiments.
// Load hands out a deep copy so callers cannot mutate the stored snapshot
// without going through Save.
type MemoryStore struct {
	accounts Accounts
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(Accounts)}
}

func (m *MemoryStore) Load(ctx context.Context) (Accounts, error) {
	return m.accounts.clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, accounts Accounts) error {
	m.accounts = accounts.clone()
	return nil
}

func (a Accounts) clone() Accounts {
	copied := make(Accounts, len(a))
	for username, acc := range a {
		acc.PlayerData = acc.PlayerData.clone()
		copied[username] = acc
	}
	return copied
}

func (p Progress) clone() Progress {
	return Progress{
		Level:     copyInt(p.Level),
		Force:     copyInt(p.Force),
		Coins:     copyInt(p.Coins),
		StoneType: copyString(p.StoneType),
	}
}

func copyInt(value *int) *int {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
