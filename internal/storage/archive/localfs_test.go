package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

func TestLocalFS_ImplementsBackend(t *testing.T) {
	var _ Backend = (*LocalFS)(nil)
}

func TestLocalFS_PutGet(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"ok":true}`)

	if err := fs.Put(ctx, "results/NIO/run.json", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := fs.Get(ctx, "results/NIO/run.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}

	if _, err := os.Stat(filepath.Join(dir, "results", "NIO", "run.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestLocalFS_GetMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	_, err := fs.Get(context.Background(), "nope.json")
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("Get missing = %v, want ErrNoData", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.txt")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	_ = fs.Put(ctx, "exists.txt", []byte("data"))
	exists, _ = fs.Exists(ctx, "exists.txt")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_ListDelete(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	for _, k := range []string{"a/2.json", "a/1.json", "b/1.json"} {
		if err := fs.Put(ctx, k, []byte("x")); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}

	keys, err := fs.List(ctx, "a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a/1.json" || keys[1] != "a/2.json" {
		t.Errorf("List(a) = %v", keys)
	}

	all, _ := fs.List(ctx, "")
	if len(all) != 3 {
		t.Errorf("List('') = %v, want 3 keys", all)
	}

	missing, err := fs.List(ctx, "zzz")
	if err != nil || len(missing) != 0 {
		t.Errorf("List(zzz) = %v, %v", missing, err)
	}

	if err := fs.Delete(ctx, "a/1.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := fs.Delete(ctx, "a/1.json"); err != nil {
		t.Errorf("Delete twice: %v", err)
	}
	keys, _ = fs.List(ctx, "a")
	if len(keys) != 1 {
		t.Errorf("after delete List(a) = %v", keys)
	}
}

func TestLocalFS_RejectsEscapingKeys(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	for _, k := range []string{"../outside.json", "a/../../x", ""} {
		if err := fs.Put(ctx, k, []byte("x")); !errors.Is(err, core.ErrStorageFailed) {
			t.Errorf("Put(%q) = %v, want ErrStorageFailed", k, err)
		}
	}
}
