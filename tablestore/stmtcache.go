package tablestore

import (
	"context"
	"database/sql"
)

// stmtCache wraps a *sql.Tx and caches prepared statements so that bulk
// inserts avoid re-parsing the INSERT for every row.
type stmtCache struct {
	tx    *sql.Tx
	cache map[string]*sql.Stmt
}

func newStmtCache(tx *sql.Tx) *stmtCache {
	return &stmtCache{tx: tx, cache: make(map[string]*sql.Stmt)}
}

func (c *stmtCache) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if s, ok := c.cache[query]; ok {
		return s, nil
	}
	s, err := c.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache[query] = s
	return s, nil
}

func (c *stmtCache) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s, err := c.stmt(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.ExecContext(ctx, args...)
}

func (c *stmtCache) close() {
	for _, s := range c.cache {
		s.Close()
	}
}
