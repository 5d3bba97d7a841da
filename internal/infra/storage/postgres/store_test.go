package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"storefront/internal/storage/core"
	"storefront/internal/storage/storagetest"
)

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) core.Store {
		s, _ := newStubStore(t)
		return s
	})
}

func TestNewEnsuresSchema(t *testing.T) {
	_, conn := newStubStore(t)
	if len(conn.execs) == 0 || !strings.Contains(conn.execs[0], "CREATE TABLE IF NOT EXISTS kv") {
		t.Fatalf("expected schema DDL first, got %v", conn.execs)
	}
}

func TestNewUsesDefaultDSNAndPgxDriver(t *testing.T) {
	var gotDriver, gotDSN string
	db, _ := newStubDB()
	restore := OverrideSQLOpen(func(name, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = name, dsn
		return db, nil
	})
	defer restore()
	s, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = s.Close() }()
	if gotDriver != "pgx" || gotDSN != defaultDSN {
		t.Fatalf("unexpected open(%q, %q)", gotDriver, gotDSN)
	}
	if s.Driver() != core.DriverPostgres || s.DB() != db {
		t.Fatalf("unexpected accessors")
	}
}

func TestNewOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, fmt.Errorf("open fail") })
	defer restore()
	if _, err := New(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "open fail") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestNewPingError(t *testing.T) {
	db, conn := newStubDB()
	conn.failPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := New(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestPutErrorWrapsKey(t *testing.T) {
	s, conn := newStubStore(t)
	conn.failExec = true
	_, err := s.Put(context.Background(), "cart-storage", []byte("[]"))
	if err == nil || !strings.Contains(err.Error(), "cart-storage") {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
}

func newStubStore(t *testing.T) (*Store, *stubConn) {
	t.Helper()
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	s, err := New(context.Background(), "stub")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, conn
}

var stubSeq atomic.Int64

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

type stubRow struct {
	value   []byte
	etag    string
	updated int64
}

// stubConn understands exactly the statements issued by Store.
type stubConn struct {
	mu       sync.Mutex
	rows     map[string]stubRow
	execs    []string
	failExec bool
	failPing bool
}

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{rows: make(map[string]stubRow)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }

func (c *stubConn) Ping(context.Context) error {
	if c.failPing {
		return errors.New("ping fail")
	}
	return nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	if c.failExec {
		return nil, errors.New("exec fail")
	}
	switch verb := strings.ToUpper(strings.Fields(query)[0]); verb {
	case "CREATE":
		return driver.RowsAffected(0), nil
	case "INSERT":
		key := args[0].Value.(string)
		c.rows[key] = stubRow{
			value:   append([]byte(nil), args[1].Value.([]byte)...),
			etag:    args[2].Value.(string),
			updated: args[3].Value.(int64),
		}
		return driver.RowsAffected(1), nil
	case "DELETE":
		key := args[0].Value.(string)
		if _, ok := c.rows[key]; !ok {
			return driver.RowsAffected(0), nil
		}
		delete(c.rows, key)
		return driver.RowsAffected(1), nil
	default:
		return nil, fmt.Errorf("unexpected statement %q", verb)
	}
}

func (c *stubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.Contains(query, "WHERE key = $1") {
		r, ok := c.rows[args[0].Value.(string)]
		if !ok {
			return &stubRows{cols: []string{"value"}}, nil
		}
		return &stubRows{cols: []string{"value"}, data: [][]driver.Value{{append([]byte(nil), r.value...)}}}, nil
	}
	keys := make([]string, 0, len(c.rows))
	for k := range c.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &stubRows{cols: []string{"key", "octet_length", "etag", "updated_at"}}
	for _, k := range keys {
		r := c.rows[k]
		out.data = append(out.data, []driver.Value{k, int64(len(r.value)), r.etag, r.updated})
	}
	return out, nil
}

type stubRows struct {
	cols []string
	data [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.idx])
	r.idx++
	return nil
}
