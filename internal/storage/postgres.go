package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists the account map in an accounts table. Load reads
// every row and Save replaces the full snapshot inside one transaction,
// keeping the whole-snapshot contract of Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Load(ctx context.Context) (Accounts, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT username, password_hash, token, level, force, coins, stone_type
		FROM accounts
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(Accounts)
	for rows.Next() {
		var username string
		var acc Account
		var level, force, coins sql.NullInt64
		var stoneType sql.NullString
		if err := rows.Scan(&username, &acc.PasswordHash, &acc.Token, &level, &force, &coins, &stoneType); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		acc.PlayerData = Progress{
			Level:     nullableInt(level),
			Force:     nullableInt(force),
			Coins:     nullableInt(coins),
			StoneType: nullableString(stoneType),
		}
		accounts[username] = acc
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (p *PostgresStore) Save(ctx context.Context, accounts Accounts) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}

	now := time.Now().UTC()
	for username, acc := range accounts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (username, password_hash, token, level, force, coins, stone_type, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, username, acc.PasswordHash, acc.Token,
			acc.PlayerData.Level, acc.PlayerData.Force, acc.PlayerData.Coins, acc.PlayerData.StoneType, now)
		if err != nil {
			return fmt.Errorf("insert account %s: %w", username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}

	return nil
}

func nullableInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	parsed := int(value.Int64)
	return &parsed
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}
