package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type pgRepo struct {
	db *sql.DB
}

// NewPostgresRepo prepares the schema and returns the store.
func NewPostgresRepo(db *sql.DB) (Repo, error) {
	const schema = `CREATE TABLE IF NOT EXISTS profiles (
		id          TEXT PRIMARY KEY,
		username    TEXT NOT NULL DEFAULT '',
		total_wins  INT  NOT NULL DEFAULT 0,
		total_games INT  NOT NULL DEFAULT 0
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("profiles schema: %w", err)
	}
	return &pgRepo{db: db}, nil
}

func (r *pgRepo) Upsert(ctx context.Context, id, username string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, username) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username`,
		id, username)
	return err
}

func (r *pgRepo) RecordResult(ctx context.Context, winnerID, loserID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	bump := func(id string, won bool) error {
		if id == "" {
			return nil
		}
		wins := 0
		if won {
			wins = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, total_wins, total_games) VALUES ($1, $2, 1)
			 ON CONFLICT (id) DO UPDATE SET
				total_wins  = profiles.total_wins + $2,
				total_games = profiles.total_games + 1`,
			id, wins)
		return err
	}
	if err := bump(winnerID, true); err != nil {
		return err
	}
	if err := bump(loserID, false); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *pgRepo) Get(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, total_wins, total_games FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Username, &p.TotalWins, &p.TotalGames)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
