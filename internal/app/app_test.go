package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNewBuildsEveryService(t *testing.T) {
	t.Setenv("RECIPEBOX_DB_DRIVER", "sqlite")
	t.Setenv("RECIPEBOX_DB_DSN", "file:app_"+uuid.NewString()+"?mode=memory&cache=shared")

	ctx := context.Background()
	container, err := New(ctx, Options{ServiceName: "app-test", SkipMigrations: true})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			t.Fatalf("close app: %v", err)
		}
	}()

	if container.Config == nil || container.Logger == nil || container.DB == nil {
		t.Fatal("expected config, logger, and db to be wired")
	}
	if container.Ingredients == nil || container.Recipes == nil {
		t.Fatal("expected domain services to be wired")
	}
	if container.Cooking == nil || container.Favorites == nil {
		t.Fatal("expected cook engine and favorite manager to be wired")
	}
	if err := container.DB.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestTwoContainersAreIndependent(t *testing.T) {
	t.Setenv("RECIPEBOX_DB_DRIVER", "sqlite")
	t.Setenv("RECIPEBOX_DB_DSN", "file:app_"+uuid.NewString()+"?mode=memory&cache=shared")

	ctx := context.Background()
	first, err := New(ctx, Options{SkipMigrations: true})
	if err != nil {
		t.Fatalf("first app: %v", err)
	}
	second, err := New(ctx, Options{SkipMigrations: true})
	if err != nil {
		t.Fatalf("second app: %v", err)
	}

	if first.DB == second.DB {
		t.Fatal("each container must own its database client")
	}

	if err := first.Close(); err != nil {
		t.Fatalf("close first: %v", err)
	}
	if err := second.DB.Ping(ctx); err != nil {
		t.Fatalf("second container must survive closing the first: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("close second: %v", err)
	}
}
