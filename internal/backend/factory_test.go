package backend

import (
	"context"
	"path/filepath"
	"testing"

	"betledger/internal/config"
	"betledger/internal/log"
	"betledger/internal/storage"
	"betledger/internal/store/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("unknown backend should fail")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://x"})
	if err != nil || cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://x" {
		t.Fatalf("cfg = %+v, %v", cfg, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Type: MemoryBackend}, false},
		{Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{Config{Type: SQLiteBackend}, true},
		{Config{Type: PostgresBackend}, true},
		{Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(log.Discard())
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Store.(*memory.Store); !ok {
		t.Fatalf("store = %T", res.Store)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "test.db")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Store.(*storage.Repository); !ok {
		t.Fatalf("store = %T", res.Store)
	}
	if err := res.Store.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatal(err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: "nope"}); err == nil {
		t.Fatal("invalid type should fail")
	}
}
