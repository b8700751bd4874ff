// Package testutil provides a database/sql driver that emulates the record
// tables written by the postgres store, without a running server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

var driverSeq atomic.Int64

// StubConn keeps table rows in memory. Writes issued inside a transaction are
// applied on commit and dropped on rollback.
type StubConn struct {
	mu      sync.Mutex
	Execs   []string
	Tables  map[string]map[string][]byte
	pending []func()
	inTx    bool

	FailPing   bool
	FailBegin  bool
	FailCommit bool
	// FailExec fails any statement containing this substring.
	FailExec string
	RowsErr  error
}

// NewStubDB registers a fresh driver and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string]map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Put seeds a row.
func (c *StubConn) Put(table, id string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(table, id, payload)
}

// Row returns a copy of a stored payload.
func (c *StubConn) Row(table, id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.Tables[table][id]
	return append([]byte(nil), payload...), ok
}

// Count returns the number of rows in table.
func (c *StubConn) Count(table string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Tables[table])
}

func (c *StubConn) put(table, id string, payload []byte) {
	rows, ok := c.Tables[table]
	if !ok {
		rows = make(map[string][]byte)
		c.Tables[table] = rows
	}
	rows[id] = payload
}

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn. Statements run through ExecContext and QueryContext instead.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("prepare not supported") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("connection refused")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailBegin {
		return nil, fmt.Errorf("begin refused")
	}
	c.inTx = true
	c.pending = nil
	return stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec != "" && strings.Contains(query, c.FailExec) {
		return nil, fmt.Errorf("exec refused")
	}
	fields := strings.Fields(query)
	var op func()
	switch {
	case len(fields) > 3 && fields[0] == "INSERT" && fields[1] == "INTO":
		if len(args) != 3 {
			return nil, fmt.Errorf("insert wants 3 args, got %d", len(args))
		}
		table, id := fields[2], fmt.Sprint(args[0].Value)
		payload, err := asBytes(args[2].Value)
		if err != nil {
			return nil, err
		}
		op = func() { c.put(table, id, payload) }
	case len(fields) > 3 && fields[0] == "DELETE" && fields[1] == "FROM":
		table, id := fields[2], fmt.Sprint(args[0].Value)
		op = func() { delete(c.Tables[table], id) }
	default:
		return driver.RowsAffected(0), nil
	}
	if c.inTx {
		c.pending = append(c.pending, op)
	} else {
		op()
	}
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext for "SELECT payload FROM <table>".
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := strings.Fields(query)
	if len(fields) != 4 || fields[0] != "SELECT" || fields[2] != "FROM" {
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
	rows := c.Tables[fields[3]]
	ids := make([]string, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	values := make([][]driver.Value, 0, len(ids))
	for _, id := range ids {
		values = append(values, []driver.Value{append([]byte(nil), rows[id]...)})
	}
	return &stubRows{values: values, err: c.RowsErr}, nil
}

func asBytes(v driver.Value) ([]byte, error) {
	switch p := v.(type) {
	case []byte:
		return append([]byte(nil), p...), nil
	case string:
		return []byte(p), nil
	}
	return nil, fmt.Errorf("payload must be bytes, got %T", v)
}

type stubTx struct{ conn *StubConn }

func (t stubTx) Commit() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inTx = false
	ops := c.pending
	c.pending = nil
	if c.FailCommit {
		return fmt.Errorf("commit refused")
	}
	for _, op := range ops {
		op()
	}
	return nil
}

func (t stubTx) Rollback() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inTx = false
	c.pending = nil
	return nil
}

type stubRows struct {
	values [][]driver.Value
	next   int
	err    error
}

func (r *stubRows) Columns() []string { return []string{"payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.next >= len(r.values) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.values[r.next])
	r.next++
	return nil
}
