package rotationlog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kapu/duty-rotation-bot/internal/domain"
	"go.uber.org/zap"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return store
}

func TestFileStoreLoadCreatesEmptyLog(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	log, err := store.Load(ctx, "group/with+slash==")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if log.Served.Len() != 0 || log.Ignored.Len() != 0 {
		t.Fatalf("expected empty log")
	}

	data, err := os.ReadFile(store.Path("group/with+slash=="))
	if err != nil {
		t.Fatalf("expected log file to be written on first load: %v", err)
	}
	if string(data) != `{"ignored":[],"served":[]}` {
		t.Fatalf("unexpected file content: %s", data)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	log := domain.NewRotationLog()
	log.Served.Append(domain.Member{Number: "+491", UUID: "a"})
	log.Served.Append(domain.Member{UUID: "b"})
	log.Ignored.Append(domain.Member{Number: "+493"})

	if err := store.Save(ctx, "g", log); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx, "g")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Equal(log) {
		t.Fatalf("round trip mismatch: served %v ignored %v", loaded.Served.Members(), loaded.Ignored.Members())
	}
}

func TestFileStoreKeepsGroupsSeparateAndLeavesNoTempFiles(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	first := domain.NewRotationLog()
	first.Served.Append(domain.Member{UUID: "a"})
	if err := store.Save(ctx, "one", first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "two", domain.NewRotationLog()); err != nil {
		t.Fatalf("save: %v", err)
	}

	other, err := store.Load(ctx, "two")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if other.Served.Len() != 0 {
		t.Fatalf("expected groups not to share logs")
	}

	entries, err := os.ReadDir(store.dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected exactly two log files, got %d", len(entries))
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreReportsCorruptLog(t *testing.T) {
	store := newTestFileStore(t)
	if err := os.WriteFile(store.Path("g"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Load(context.Background(), "g"); err == nil {
		t.Fatalf("expected corrupt file to fail loading")
	}
}

func TestFileStoreGroupsDecodesFileNames(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	for _, id := range []string{"b/group==", "a+group"} {
		if _, err := store.Load(ctx, id); err != nil {
			t.Fatalf("load %s: %v", id, err)
		}
	}
	if err := os.WriteFile(store.dir+"/round-robin-!!!.json", []byte("{}"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	groups, err := store.Groups()
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if len(groups) != 2 || groups[0] != "a+group" || groups[1] != "b/group==" {
		t.Fatalf("unexpected groups: %v", groups)
	}
}

func TestFileStoreMigratesLegacyFileName(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	const gid = "dGVzdC1ncm91cA=="

	legacy := domain.NewRotationLog()
	legacy.Served.Append(domain.Member{Number: "+491", UUID: "a"})
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	legacyPath := filepath.Join(store.dir, "round-robin-"+gid+".json")
	if err := os.WriteFile(legacyPath, data, 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	groups, err := store.Groups()
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if len(groups) != 1 || groups[0] != gid {
		t.Fatalf("expected legacy group to be listed, got %v", groups)
	}

	loaded, err := store.Load(ctx, gid)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Equal(legacy) {
		t.Fatalf("expected legacy contents, got served %v", loaded.Served.Members())
	}
	if _, err := os.Stat(legacyPath); !os.IsNotExist(err) {
		t.Fatalf("expected legacy file to be moved, stat err %v", err)
	}
	if _, err := os.Stat(store.Path(gid)); err != nil {
		t.Fatalf("expected current file to exist: %v", err)
	}

	groups, err = store.Groups()
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if len(groups) != 1 || groups[0] != gid {
		t.Fatalf("expected the migrated group once, got %v", groups)
	}
}

func TestFileStorePingChecksDirectory(t *testing.T) {
	store := newTestFileStore(t)
	if err := Ping(context.Background(), store); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := os.RemoveAll(store.dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if err := Ping(context.Background(), store); err == nil {
		t.Fatalf("expected ping to fail without the directory")
	}
}
