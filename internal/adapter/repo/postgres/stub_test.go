package postgres

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type sqlCall struct {
	sql  string
	args []any
}

// poolStub satisfies PgxPool with canned results and records every call.
type poolStub struct {
	execTag  pgconn.CommandTag
	execErr  error
	rowData  []any
	rowErr   error
	rowsData [][]any
	queryErr error

	execs   []sqlCall
	queries []sqlCall
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execs = append(p.execs, sqlCall{sql: sql, args: args})
	return p.execTag, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.queries = append(p.queries, sqlCall{sql: sql, args: args})
	return &rowStub{data: p.rowData, err: p.rowErr}
}

func (p *poolStub) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.queries = append(p.queries, sqlCall{sql: sql, args: args})
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return &rowsStub{data: p.rowsData}, nil
}

type rowStub struct {
	data []any
	err  error
}

func (r *rowStub) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.data, dest)
}

type rowsStub struct {
	data [][]any
	idx  int
}

func (r *rowsStub) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *rowsStub) Scan(dest ...any) error { return scanInto(r.data[r.idx-1], dest) }

func (r *rowsStub) Close()                                       {}
func (r *rowsStub) Err() error                                   { return nil }
func (r *rowsStub) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *rowsStub) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rowsStub) Values() ([]any, error)                       { return nil, nil }
func (r *rowsStub) RawValues() [][]byte                          { return nil }
func (r *rowsStub) Conn() *pgx.Conn                              { return nil }

func scanInto(src []any, dest []any) error {
	if len(src) != len(dest) {
		return fmt.Errorf("scan: have %d values for %d destinations", len(src), len(dest))
	}
	for i, v := range src {
		dv := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		dv.Set(reflect.ValueOf(v).Convert(dv.Type()))
	}
	return nil
}
