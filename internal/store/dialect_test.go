package store

import (
	"errors"
	"strings"
	"testing"
)

func TestPlaceholders(t *testing.T) {
	pg := NewDialect("postgres")
	if got := pg.Placeholder(1); got != "$1" {
		t.Fatalf("expected $1, got %s", got)
	}
	if got := pg.Placeholder(3); got != "$3" {
		t.Fatalf("expected $3, got %s", got)
	}

	lite := NewDialect("sqlite")
	if got := lite.Placeholder(1); got != "?1" {
		t.Fatalf("expected ?1, got %s", got)
	}
	if got := lite.Placeholder(5); got != "?5" {
		t.Fatalf("expected ?5, got %s", got)
	}
}

func TestSQLiteMapError_UniqueConstraint(t *testing.T) {
	d := NewDialect("sqlite")

	err := d.MapError(errors.New("constraint failed: UNIQUE constraint failed: _users.email"))
	if !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}

	plain := errors.New("disk I/O error")
	if errors.Is(d.MapError(plain), ErrUniqueViolation) {
		t.Fatal("unrelated error must pass through")
	}
}

func TestSystemTablesSQL_CoversSystemTables(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		ddl := NewDialect(driver).SystemTablesSQL()
		for _, table := range []string{"_forms", "_submissions", "_users", "_refresh_tokens", "_events"} {
			if !strings.Contains(ddl, table) {
				t.Fatalf("%s DDL missing table %s", driver, table)
			}
		}
	}
}

func TestTruthy(t *testing.T) {
	truthy := []any{true, int64(1), 1, float64(1)}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Fatalf("expected truthy for %#v", v)
		}
	}
	falsy := []any{false, int64(0), 0, float64(0), nil, "true"}
	for _, v := range falsy {
		if Truthy(v) {
			t.Fatalf("expected falsy for %#v", v)
		}
	}
}
