package db

import (
	"context"
	"testing"
)

func TestMigrationsUpAndDown(t *testing.T) {
	ctx := context.Background()
	database, err := Init("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer database.Close()

	err = RunMigrations(ctx, database.DB, "sqlite")
	if err != nil {
		t.Fatalf("up: %v", err)
	}

	version, err := Version(ctx, database.DB, "sqlite")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	for _, table := range []string{"users", "password_resets", "quizzes", "questions", "results"} {
		var n int
		err = database.Get(&n, "SELECT COUNT(*) FROM "+table)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	err = MigrateDown(ctx, database.DB, "sqlite")
	if err != nil {
		t.Fatalf("down: %v", err)
	}

	var n int
	err = database.Get(&n, "SELECT COUNT(*) FROM quizzes")
	if err == nil {
		t.Fatalf("expected quizzes table to be dropped")
	}
}

func TestGetDialect(t *testing.T) {
	cases := map[string]string{"sqlite": "sqlite3", "pgx": "postgres", "other": "other"}
	for driver, want := range cases {
		if got := getDialect(driver); got != want {
			t.Fatalf("getDialect(%q) = %q, want %q", driver, got, want)
		}
	}
}
