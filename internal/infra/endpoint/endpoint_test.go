package endpoint_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"

	"homectl/internal/application"
	"homectl/internal/infra/endpoint"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exercise checks the contract every backend shares.
func exercise(t *testing.T, store application.EndpointStore) {
	t.Helper()
	ctx := context.Background()

	if got := store.Current(ctx); got != endpoint.DefaultEndpoint {
		t.Errorf("initial endpoint: got %q, want %q", got, endpoint.DefaultEndpoint)
	}

	if err := store.Configure(ctx, "http://10.0.0.5:8081"); err != nil {
		t.Fatalf("Configure error: %v", err)
	}
	if got := store.Current(ctx); got != "http://10.0.0.5:8081" {
		t.Errorf("configured endpoint: got %q", got)
	}

	if err := store.Configure(ctx, "http://10.0.0.6"); err != nil {
		t.Fatalf("reconfigure error: %v", err)
	}
	if got := store.Current(ctx); got != "http://10.0.0.6" {
		t.Errorf("reconfigured endpoint: got %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	exercise(t, endpoint.NewMemoryStore(""))
}

func TestSQLiteStore(t *testing.T) {
	db, err := endpoint.OpenSQLite(filepath.Join(t.TempDir(), "homectl.db"))
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	store, err := endpoint.NewSQLiteStore(db, "", discardLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	exercise(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homectl.db")
	ctx := context.Background()

	db, err := endpoint.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	store, err := endpoint.NewSQLiteStore(db, "", discardLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	if err := store.Configure(ctx, "http://192.168.0.101"); err != nil {
		t.Fatalf("Configure error: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.Close()

	db, err = endpoint.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	store, err = endpoint.NewSQLiteStore(db, "", discardLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	if got := store.Current(ctx); got != "http://192.168.0.101" {
		t.Errorf("endpoint after reopen: got %q", got)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("HOMECTL_TEST_REDIS")
	if addr == "" {
		t.Skip("HOMECTL_TEST_REDIS not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	key := "homectl:test:" + t.Name()
	rdb.Del(context.Background(), key)
	defer rdb.Del(context.Background(), key)

	exercise(t, endpoint.NewRedisStore(rdb, key, "", discardLogger()))
}

func TestRedisStore_UnreachableUsesDefault(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer rdb.Close()

	store := endpoint.NewRedisStore(rdb, "", "http://fallback.local", discardLogger())
	if got := store.Current(context.Background()); got != "http://fallback.local" {
		t.Errorf("got %q, want default", got)
	}
}
