// Package store persists learned query resolutions in SQLite so that queries
// the model has already classified can be replayed without a model call.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fintask/fintask-go/internal/domain"
	"github.com/fintask/fintask-go/internal/ports"
)

// LearnedStore keeps one row per normalized query text. Saving the same query
// again overwrites the remembered action, so the latest successful
// resolution always wins.
type LearnedStore struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (or opens) the learned-query database at path, creating parent
// directories as needed.
func Open(path string) (*LearnedStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open learned store: %w", err)
	}
	s := &LearnedStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LearnedStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS learned_queries (
		query TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		params TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`)
	return err
}

// Lookup returns the remembered action for query, if any.
func (s *LearnedStore) Lookup(query string) (domain.StructuredAction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var name, rawParams string
	err := s.db.QueryRow(
		`SELECT action, params FROM learned_queries WHERE query = ?`, query,
	).Scan(&name, &rawParams)
	if err == sql.ErrNoRows {
		return domain.StructuredAction{}, false, nil
	}
	if err != nil {
		return domain.StructuredAction{}, false, err
	}

	action := domain.StructuredAction{Action: domain.ActionName(name)}
	if !domain.KnownAction(action.Action) {
		// A row from an older vocabulary; treat it as absent.
		return domain.StructuredAction{}, false, nil
	}
	if err := json.Unmarshal([]byte(rawParams), &action.Params); err != nil {
		return domain.StructuredAction{}, false, err
	}
	return action, true, nil
}

// Save upserts the resolution for query.
func (s *LearnedStore) Save(query string, action domain.StructuredAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := json.Marshal(action.Params)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO learned_queries (query, action, params, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET
			action = excluded.action,
			params = excluded.params,
			created_at = excluded.created_at`,
		query, string(action.Action), string(params), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Prune removes rows saved before olderThan and reports how many went away.
func (s *LearnedStore) Prune(olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`DELETE FROM learned_queries WHERE datetime(created_at) < datetime(?)`,
		olderThan.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close releases the underlying database handle.
func (s *LearnedStore) Close() error {
	return s.db.Close()
}

var _ ports.LearnedStore = (*LearnedStore)(nil)
