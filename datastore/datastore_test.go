package datastore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) (*DataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "grants.json")
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return ds, path
}

func TestPutGetRoundTripAcrossReopen(t *testing.T) {
	ds, path := openTemp(t)

	if err := ds.Put("grants/alice", []string{"chatcmd.kick"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer reopened.Close()

	var got []string
	ok, err := reopened.Get("grants/alice", &got)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if len(got) != 1 || got[0] != "chatcmd.kick" {
		t.Errorf("got %q", got)
	}
}

func TestGetMissing(t *testing.T) {
	ds, _ := openTemp(t)
	defer ds.Close()

	var v []string
	ok, err := ds.Get("nope", &v)
	if ok || err != nil {
		t.Errorf("Get(nope) = %v, %v", ok, err)
	}
}

func TestDeleteAndKeys(t *testing.T) {
	ds, _ := openTemp(t)
	defer ds.Close()

	_ = ds.Put("grants/bob", []string{"a"})
	_ = ds.Put("grants/alice", []string{"b"})
	_ = ds.Put("meta/version", 1)
	ds.Delete("grants/bob")

	keys := ds.Keys("grants/")
	if len(keys) != 1 || keys[0] != "grants/alice" {
		t.Errorf("Keys = %q", keys)
	}
}

func TestClosedStore(t *testing.T) {
	ds, _ := openTemp(t)
	if err := ds.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ds.Put("k", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after Close = %v", err)
	}
	if err := ds.Save(); !errors.Is(err, ErrClosed) {
		t.Errorf("Save after Close = %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestBackupsArePruned(t *testing.T) {
	ds, path := openTemp(t)
	defer ds.Close()

	for i := 0; i < 6; i++ {
		if err := ds.Put("counter", i); err != nil {
			t.Fatal(err)
		}
		if err := ds.Save(); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	backups, _ := filepath.Glob(path + ".backup.*")
	if len(backups) != 3 {
		t.Errorf("kept %d backups, want 3", len(backups))
	}
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Error("expected an error for a corrupt store")
	}
}
