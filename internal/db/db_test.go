package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)
	// Mainly ensures the function doesn't panic.
}

func TestNewSQLite(t *testing.T) {
	t.Run("Explicit path", func(t *testing.T) {
		s := NewSQLite("/tmp/some.db")
		if s == nil {
			t.Fatal("Expected non-nil SQLite instance")
		}
		if s.path != "/tmp/some.db" {
			t.Errorf("Expected path to be kept, got %q", s.path)
		}
		if s.conn != nil {
			t.Error("Expected connection to be nil initially")
		}
	})

	t.Run("Default path", func(t *testing.T) {
		s := NewSQLite("")
		if s.path == "" {
			t.Error("Expected a default path")
		}
	})
}

func TestSQLiteInitAndSchema(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s := NewSQLite(dbPath)
	defer s.Close()

	if err := s.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	t.Run("Tables exist", func(t *testing.T) {
		for _, table := range []string{"articles", "article_versions", "notification_preferences"} {
			var name string
			row := s.Get().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
			if err := row.Scan(&name); err != nil {
				t.Errorf("Expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("Insert and query article row", func(t *testing.T) {
		_, err := s.Exec(`INSERT INTO articles (id, category, status) VALUES (?, ?, ?)`,
			"a1", "defi", "draft")
		if err != nil {
			t.Fatalf("Failed to insert article: %v", err)
		}

		rows, err := s.Query(`SELECT id, category, status FROM articles WHERE id = ?`, "a1")
		if err != nil {
			t.Fatalf("Failed to query article: %v", err)
		}
		defer rows.Close()

		if !rows.Next() {
			t.Fatal("Expected one row")
		}
		var id, category, status string
		if err := rows.Scan(&id, &category, &status); err != nil {
			t.Fatalf("Failed to scan: %v", err)
		}
		if id != "a1" || category != "defi" || status != "draft" {
			t.Errorf("Unexpected row values: %s %s %s", id, category, status)
		}
	})
}

func TestSQLiteCloseWithoutInit(t *testing.T) {
	s := NewSQLite("")
	if err := s.Close(); err != nil {
		t.Errorf("Expected Close on uninitialized DB to be a no-op, got %v", err)
	}
}
