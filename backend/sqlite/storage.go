package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

// pageSize bounds the rows fetched per query while ranging. Pages are read
// with keyset pagination so no connection stays checked out between calls
// to Next.
const pageSize = 128

func (sb *SQLiteBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db, err := sb.database()
	if err != nil {
		return nil, false, err
	}

	var value []byte
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = ?", sb.table)
	err = db.QueryRowContext(ctx, query, blob(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return blob(value), true, nil
}

func (sb *SQLiteBackend) Set(ctx context.Context, key, value []byte) error {
	db, err := sb.database()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, sb.table)
	if _, err := db.ExecContext(ctx, query, blob(key), blob(value)); err != nil {
		sb.log.Error("Set failed: %v", err)
		return err
	}
	return nil
}

func (sb *SQLiteBackend) Remove(ctx context.Context, key []byte) error {
	db, err := sb.database()
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", sb.table)
	if _, err := db.ExecContext(ctx, query, blob(key)); err != nil {
		sb.log.Error("Remove failed: %v", err)
		return err
	}
	return nil
}

func (sb *SQLiteBackend) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	db, err := sb.database()
	if err != nil {
		return nil, err
	}

	return &sqliteIterator{
		ctx:   ctx,
		db:    db,
		table: sb.table,
		start: start,
		end:   end,
		order: order,
	}, nil
}

type sqliteIterator struct {
	ctx   context.Context
	db    *sql.DB
	table string
	start []byte
	end   []byte
	order data.Order

	page []data.Pair
	pos  int
	// last is the key of the final row of the previous page
	last      []byte
	exhausted bool
	cur       data.Pair
	err       error
}

func (it *sqliteIterator) Next() bool {
	if it.err != nil {
		return false
	}

	if it.pos >= len(it.page) {
		if it.exhausted {
			it.cur = data.Pair{}
			return false
		}
		if err := it.fetch(); err != nil {
			it.err = err
			it.cur = data.Pair{}
			return false
		}
		if len(it.page) == 0 {
			it.cur = data.Pair{}
			return false
		}
	}

	it.cur = it.page[it.pos]
	it.pos++
	return true
}

func (it *sqliteIterator) fetch() error {
	var where []string
	var args []any

	if it.start != nil {
		where = append(where, "key >= ?")
		args = append(args, blob(it.start))
	}
	if it.end != nil {
		where = append(where, "key < ?")
		args = append(args, blob(it.end))
	}

	direction := "ASC"
	if it.order == data.Descending {
		direction = "DESC"
	}
	if it.last != nil {
		if it.order == data.Descending {
			where = append(where, "key < ?")
		} else {
			where = append(where, "key > ?")
		}
		args = append(args, it.last)
	}

	query := fmt.Sprintf("SELECT key, value FROM %s", it.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY key %s LIMIT %d", direction, pageSize)

	rows, err := it.db.QueryContext(it.ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	it.page = it.page[:0]
	it.pos = 0
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		it.page = append(it.page, data.Pair{Key: blob(key), Value: blob(value)})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(it.page) < pageSize {
		it.exhausted = true
	}
	if len(it.page) > 0 {
		it.last = it.page[len(it.page)-1].Key
	}
	return nil
}

func (it *sqliteIterator) Key() []byte {
	return it.cur.Key
}

func (it *sqliteIterator) Value() []byte {
	return it.cur.Value
}

func (it *sqliteIterator) Err() error {
	return it.err
}

func (it *sqliteIterator) Close() error {
	it.page = nil
	it.pos = 0
	it.exhausted = true
	it.cur = data.Pair{}
	return nil
}

// blob copies b and maps nil onto an empty, non-nil slice so it binds as a
// zero-length BLOB instead of NULL.
func blob(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return data.Clone(b)
}
