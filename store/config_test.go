package store_test

import (
	"context"
	"testing"

	"github.com/shellq/shellq/store"
)

func TestConfigGetSet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cfg := store.NewConfig(db)

	_, ok, err := cfg.Get(ctx, "max_retries")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected missing key")
	}

	if err := cfg.Set(ctx, "max_retries", "5"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := cfg.Get(ctx, "max_retries")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "5" {
		t.Fatalf("expected 5, got %q (ok=%v)", v, ok)
	}

	// overwrite
	if err := cfg.Set(ctx, "max_retries", "7"); err != nil {
		t.Fatal(err)
	}
	v, ok, err = cfg.Get(ctx, "max_retries")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "7" {
		t.Fatalf("expected 7 after overwrite, got %q", v)
	}
}
