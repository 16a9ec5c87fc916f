package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

func (pb *PostgresBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	pool, err := pb.connection()
	if err != nil {
		return nil, false, err
	}

	var value []byte
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", pb.table)
	err = pool.QueryRow(ctx, query, bytea(key)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query value: %w", err)
	}

	return bytea(value), true, nil
}

func (pb *PostgresBackend) Set(ctx context.Context, key, value []byte) error {
	pool, err := pb.connection()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, pb.table)
	if _, err := pool.Exec(ctx, query, bytea(key), bytea(value)); err != nil {
		pb.log.Error("Set failed: %v", err)
		return fmt.Errorf("failed to store value: %w", err)
	}
	return nil
}

func (pb *PostgresBackend) Remove(ctx context.Context, key []byte) error {
	pool, err := pb.connection()
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", pb.table)
	if _, err := pool.Exec(ctx, query, bytea(key)); err != nil {
		pb.log.Error("Remove failed: %v", err)
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}

func (pb *PostgresBackend) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	pool, err := pb.connection()
	if err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if start != nil {
		args = append(args, bytea(start))
		where = append(where, fmt.Sprintf("key >= $%d", len(args)))
	}
	if end != nil {
		args = append(args, bytea(end))
		where = append(where, fmt.Sprintf("key < $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT key, value FROM %s", pb.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if order == data.Descending {
		query += " ORDER BY key DESC"
	} else {
		query += " ORDER BY key ASC"
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query range: %w", err)
	}

	return &postgresIterator{rows: rows}, nil
}

// postgresIterator streams rows straight from the connection; the
// connection returns to the pool on Close or once rows are exhausted.
type postgresIterator struct {
	rows pgx.Rows
	cur  data.Pair
	err  error
}

func (it *postgresIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		it.cur = data.Pair{}
		return false
	}

	var key, value []byte
	if err := it.rows.Scan(&key, &value); err != nil {
		it.err = err
		it.cur = data.Pair{}
		it.rows.Close()
		return false
	}

	it.cur = data.Pair{Key: bytea(key), Value: bytea(value)}
	return true
}

func (it *postgresIterator) Key() []byte {
	return it.cur.Key
}

func (it *postgresIterator) Value() []byte {
	return it.cur.Value
}

func (it *postgresIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

func (it *postgresIterator) Close() error {
	it.rows.Close()
	return nil
}

// bytea copies b and maps nil onto an empty slice, which pgx sends as an
// empty BYTEA instead of NULL.
func bytea(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return data.Clone(b)
}
