package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestMapTxErrorSerializationFailure(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"40001", true}, // serialization_failure
		{"40P01", true}, // deadlock_detected
		{"23505", false},
		{"22P02", false},
	}

	for _, tc := range cases {
		err := &pq.Error{Code: pq.ErrorCode(tc.code)}
		got := errors.Is(mapTxError(err), ErrConcurrencyConflict)
		if got != tc.want {
			t.Errorf("code %s: conflict = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestMapTxErrorWrappedPqError(t *testing.T) {
	err := fmt.Errorf("commit: %w", &pq.Error{Code: "40001"})
	if !errors.Is(mapTxError(err), ErrConcurrencyConflict) {
		t.Fatal("wrapped serialization failure must map to ErrConcurrencyConflict")
	}
}

func TestMapTxErrorKeepsOtherErrors(t *testing.T) {
	sentinel := errors.New("boom")
	if got := mapTxError(sentinel); got != sentinel {
		t.Fatalf("mapTxError rewrote %v into %v", sentinel, got)
	}
}

func TestCutoffClosedIsClosedPool(t *testing.T) {
	// o fechamento por cutoff continua dentro da taxonomia de pool fechado
	if !errors.Is(ErrCutoffClosed, ErrClosedPool) {
		t.Fatal("ErrCutoffClosed must match ErrClosedPool")
	}
}

func TestCountDistinct(t *testing.T) {
	if n := countDistinct([]string{"u1", "u2", "u1", "u3"}); n != 3 {
		t.Fatalf("countDistinct = %d, want 3", n)
	}
	if n := countDistinct(nil); n != 0 {
		t.Fatalf("countDistinct(nil) = %d, want 0", n)
	}
}
