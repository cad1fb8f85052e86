//go:build integration

package pgxcasbin_test

import (
	"context"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shandysiswandi/quill/internal/migrations"
	"github.com/shandysiswandi/quill/internal/pkg/pgxcasbin"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("quill"),
		tcpostgres.WithUsername("quill"),
		tcpostgres.WithPassword("quill"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Up(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestAdapterAndWatcher(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	m, err := model.NewModelFromString(migrations.CasbinModel)
	if err != nil {
		t.Fatalf("model: %v", err)
	}

	newEnforcer := func() *casbin.Enforcer {
		e, err := casbin.NewEnforcer(m.Copy(), pgxcasbin.NewAdapter(pool))
		if err != nil {
			t.Fatalf("enforcer: %v", err)
		}
		return e
	}

	// Arrange: seeded policies are loaded.
	a := newEnforcer()
	if ok, _ := a.Enforce("1", "blog", "moderate"); ok {
		t.Fatal("subject without a role must be denied")
	}
	if _, err := a.AddGroupingPolicy("1", "admin"); err != nil {
		t.Fatalf("add grouping: %v", err)
	}
	if ok, _ := a.Enforce("1", "blog", "moderate"); !ok {
		t.Fatal("admin wildcard policy not loaded")
	}

	// A second instance sees the change after a reload.
	b := newEnforcer()
	if ok, _ := b.Enforce("1", "blog", "moderate"); !ok {
		t.Fatal("grouping not persisted")
	}

	// Filtered load only brings rules of subject 2.
	if _, err := a.AddGroupingPolicy("2", "moderator"); err != nil {
		t.Fatalf("add grouping: %v", err)
	}
	adapter := pgxcasbin.NewAdapter(pool)
	fm := m.Copy()
	if err := adapter.LoadFilteredPolicyCtx(ctx, fm, pgxcasbin.Filter{"g": {{"2"}}}); err != nil {
		t.Fatalf("filtered load: %v", err)
	}
	if !adapter.IsFiltered() {
		t.Fatal("filtered flag not set")
	}
	if got, _ := fm.GetPolicy("g", "g"); len(got) != 1 || got[0][0] != "2" {
		t.Fatalf("filtered policy = %v", got)
	}

	// Watcher: a change on instance a reaches instance b.
	wa, err := pgxcasbin.NewWatcher(ctx, pool, "quill_casbin_test")
	if err != nil {
		t.Fatalf("watcher a: %v", err)
	}
	t.Cleanup(wa.Close)
	wb, err := pgxcasbin.NewWatcher(ctx, pool, "quill_casbin_test")
	if err != nil {
		t.Fatalf("watcher b: %v", err)
	}
	t.Cleanup(wb.Close)

	_ = a.SetWatcher(wa)
	_ = b.SetWatcher(wb)
	_ = wb.SetUpdateCallback(pgxcasbin.Apply(b))

	deadline := time.Now().Add(5 * time.Second)
	for !(wa.Listening() && wb.Listening()) && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := a.RemoveGroupingPolicy("1", "admin"); err != nil {
		t.Fatalf("remove grouping: %v", err)
	}

	for time.Now().Before(deadline) {
		if ok, _ := b.Enforce("1", "blog", "moderate"); !ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not propagate removal")
}
