package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

// fakeTx devolve RowsAffected programado por chamada
type fakeTx struct {
	rowsAffected []int64
	calls        int
}

func (f *fakeTx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	var n int64
	if f.calls < len(f.rowsAffected) {
		n = f.rowsAffected[f.calls]
	}
	f.calls++
	return fakeResult{rows: n}, nil
}

type errTx struct{ err error }

func (e errTx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, e.err
}

func TestRecordEarningsWriteOnce(t *testing.T) {
	// a primeira gravação casa earnings=0; a segunda não casa linha alguma
	tx := &fakeTx{rowsAffected: []int64{1, 0}}

	if err := recordEarnings(context.Background(), tx, "u1", "e1", "hA", 166); err != nil {
		t.Fatalf("first write: %v", err)
	}
	err := recordEarnings(context.Background(), tx, "u1", "e1", "hA", 166)
	if !errors.Is(err, ErrEarningsRewrite) {
		t.Fatalf("second write: err = %v, want ErrEarningsRewrite", err)
	}
}

func TestRecordEarningsPropagatesExecError(t *testing.T) {
	boom := errors.New("boom")
	if err := recordEarnings(context.Background(), errTx{err: boom}, "u1", "e1", "hA", 10); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want exec error unchanged", err)
	}
}
