package fixgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

type Sandbox struct {
	DB     *sql.DB
	DSN    string
	Schema string
	Close  func()
}

var (
	bootOnce sync.Once
	bootErr  error
)

// BootOnce starts the shared Postgres container the first time it is
// called. Tests are skipped when no container runtime is reachable.
func BootOnce(t *testing.T, opts ...Option) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	bootOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		cfg := &config{}
		for _, o := range opts {
			o(cfg)
		}
		bootErr = boot(ctx, cfg)
	})
	if bootErr != nil {
		t.Fatalf("fixgres boot failed: %v", bootErr)
	}
}

// NewSandbox returns a connection pinned to a fresh schema, migrated when
// WithGooseUp was given. The schema is dropped on cleanup.
func NewSandbox(t *testing.T) *Sandbox {
	t.Helper()

	mu.Lock()
	base := connString
	mu.Unlock()
	if base == "" {
		t.Fatalf("fixgres not booted. Call fixgres.BootOnce(t, ...) first.")
	}

	admin, err := sql.Open("pgx", base) // admin connection (no search_path)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Unique schema per test
	schema := fmt.Sprintf("t_%x", time.Now().UnixNano())

	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA "`+schema+`"`); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	// Every pooled connection carries the sandbox search_path.
	sbxDSN := withSearchPath(base, schema)

	db, err := sql.Open("pgx", sbxDSN)
	if err != nil {
		t.Fatalf("open sandbox: %v", err)
	}

	sbx := &Sandbox{
		DB:     db,
		DSN:    sbxDSN,
		Schema: schema,
	}
	var closeOnce sync.Once
	sbx.Close = func() {
		closeOnce.Do(func() {
			// drop schema with admin handle (it doesn't share the search_path)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_, _ = admin.ExecContext(ctx, `DROP SCHEMA IF EXISTS "`+schema+`" CASCADE`)
			_ = db.Close()
			_ = admin.Close()
		})
	}
	t.Cleanup(sbx.Close)

	if bootCfg.gooseUp {
		if err := migrate(db); err != nil {
			t.Fatalf("migrate sandbox: %v", err)
		}
	}
	return sbx
}

func withSearchPath(base, schema string) string {
	u, _ := url.Parse(base)
	q := u.Query()
	q.Set("options", fmt.Sprintf("-csearch_path=%s", schema))
	u.RawQuery = q.Encode()
	return u.String()
}
