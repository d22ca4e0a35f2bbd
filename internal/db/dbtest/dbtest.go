// Package dbtest provides a stub *sql.DB whose transactions are no-ops, for
// service tests that mock their repositories and only need InTx to run.
package dbtest

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
)

var registerOnce sync.Once

// NewPool returns a *sql.DB backed by a no-op driver. Begin/Commit/Rollback
// succeed; any real statement errors out, so tests notice when a code path
// bypasses its repository.
func NewPool(t *testing.T) *sql.DB {
	t.Helper()
	registerOnce.Do(func() {
		sql.Register("dbtest", stubDriver{})
	})
	pool, err := sql.Open("dbtest", "")
	if err != nil {
		t.Fatalf("open stub db: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("dbtest: statements are not supported")
}
func (*stubConn) Close() error              { return nil }
func (*stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }
