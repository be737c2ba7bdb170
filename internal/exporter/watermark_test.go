package exporter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/avojak/pihole-influxdb/internal/infrastructure/database"
)

func TestMemoryWatermarkStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryWatermarkStore()

	got, err := store.Get(ctx, "primary")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Get() for unknown alias = %v, want zero", got)
	}

	mark := time.Unix(1800, 0)
	if err := store.Set(ctx, "primary", mark); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ = store.Get(ctx, "primary")
	if !got.Equal(mark) {
		t.Errorf("Get() = %v, want %v", got, mark)
	}

	// Aliases are independent.
	got, _ = store.Get(ctx, "secondary")
	if !got.IsZero() {
		t.Errorf("Get() for other alias = %v, want zero", got)
	}
}

func TestSQLiteWatermarkStore(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "monitor.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	store := NewSQLiteWatermarkStore(db.DB)

	got, err := store.Get(ctx, "primary")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Get() for unknown alias = %v, want zero", got)
	}

	mark := time.Unix(1800, 0)
	if err := store.Set(ctx, "primary", mark); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ = store.Get(ctx, "primary")
	if !got.Equal(mark) {
		t.Errorf("Get() = %v, want %v", got, mark)
	}

	// Set replaces the previous watermark for the alias.
	later := time.Unix(2400, 0)
	if err := store.Set(ctx, "primary", later); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ = store.Get(ctx, "primary")
	if !got.Equal(later) {
		t.Errorf("Get() after update = %v, want %v", got, later)
	}
}

func TestSQLiteWatermarkStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "monitor.db")
	cfg := database.Config{Path: path, BusyTimeout: 5}

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	mark := time.Unix(1800, 0)
	if err := NewSQLiteWatermarkStore(db.DB).Set(ctx, "primary", mark); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	db.Close()

	db, err = database.Open(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	got, err := NewSQLiteWatermarkStore(db.DB).Get(ctx, "primary")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Equal(mark) {
		t.Errorf("Get() after reopen = %v, want %v", got, mark)
	}
}
