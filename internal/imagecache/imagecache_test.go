package imagecache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

type fakeDownloader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (d *fakeDownloader) Download(_ context.Context, url, dest string) error {
	d.mu.Lock()
	d.calls = append(d.calls, url)
	d.mu.Unlock()
	if err := d.fail[url]; err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("img:"+url), 0o644)
}

func (d *fakeDownloader) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type fakeImageStore struct {
	mu    sync.Mutex
	paths map[string]string // url -> local path
}

func (s *fakeImageStore) SetLocalPath(_ context.Context, _, url, localPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paths == nil {
		s.paths = make(map[string]string)
	}
	s.paths[url] = localPath
	return nil
}

func newTestCache(t *testing.T, dl Downloader) (*Cache, *fakeImageStore) {
	t.Helper()
	store := &fakeImageStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := New(t.TempDir(), dl, store, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, store
}

func TestScheduleDownloadsAndRecords(t *testing.T) {
	dl := &fakeDownloader{}
	c, store := newTestCache(t, dl)

	c.Schedule(context.Background(), "pet-1", []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.png",
	})
	c.Wait()

	if dl.callCount() != 2 {
		t.Fatalf("downloads = %d, want 2", dl.callCount())
	}
	for _, url := range []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.png"} {
		path, ok := store.paths[url]
		if !ok {
			t.Fatalf("no recorded path for %q", url)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("cached file missing for %q: %v", url, err)
		}
		if !strings.HasPrefix(filepath.Base(path), "pet-1_") {
			t.Errorf("file name %q not keyed by pet id", filepath.Base(path))
		}
	}
}

func TestScheduleSkipsCachedFile(t *testing.T) {
	dl := &fakeDownloader{}
	c, store := newTestCache(t, dl)

	url := "https://cdn.example.com/a.jpg"
	c.Schedule(context.Background(), "pet-1", []string{url})
	c.Wait()
	c.Schedule(context.Background(), "pet-1", []string{url})
	c.Wait()

	if dl.callCount() != 1 {
		t.Errorf("downloads = %d, want 1 (second pass hits the file)", dl.callCount())
	}
	if store.paths[url] == "" {
		t.Error("cached-file pass did not record the local path")
	}
}

func TestScheduleFailureLoggedNotFatal(t *testing.T) {
	url := "https://cdn.example.com/broken.jpg"
	dl := &fakeDownloader{fail: map[string]error{url: errors.New("connection reset")}}
	c, store := newTestCache(t, dl)

	c.Schedule(context.Background(), "pet-1", []string{url, "https://cdn.example.com/ok.jpg"})
	c.Wait()

	if _, ok := store.paths[url]; ok {
		t.Error("failed download must not record a local path")
	}
	if _, ok := store.paths["https://cdn.example.com/ok.jpg"]; !ok {
		t.Error("sibling download should still succeed")
	}
}

func TestLocalizePrefersCachedFile(t *testing.T) {
	dl := &fakeDownloader{}
	c, store := newTestCache(t, dl)

	url := "https://cdn.example.com/a.jpg"
	rows := []*model.PetImage{{PetID: "pet-1", URL: url}}
	if got := c.Localize(rows); got[0] != url {
		t.Errorf("Localize before download = %q, want remote url", got[0])
	}

	c.Schedule(context.Background(), "pet-1", []string{url})
	c.Wait()
	rows[0].LocalPath = store.paths[url]

	got := c.Localize(rows)
	if got[0] == url {
		t.Error("Localize after download still returns remote url")
	}
	if _, err := os.Stat(got[0]); err != nil {
		t.Errorf("localized path %q not on disk: %v", got[0], err)
	}
}

func TestDiscardRemovesCachedFiles(t *testing.T) {
	dl := &fakeDownloader{}
	c, store := newTestCache(t, dl)

	url := "https://cdn.example.com/old.jpg"
	c.Schedule(context.Background(), "pet-1", []string{url})
	c.Wait()

	path := store.paths[url]
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cached file %q missing before discard: %v", path, err)
	}

	c.Discard([]*model.PetImage{{PetID: "pet-1", URL: url, LocalPath: path}})

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cached file %q still on disk after its url was removed", path)
	}

	// Rows that never finished downloading carry no path and are a no-op.
	c.Discard([]*model.PetImage{{PetID: "pet-1", URL: "https://cdn.example.com/never.jpg"}})
}

func TestPurge(t *testing.T) {
	dl := &fakeDownloader{}
	c, _ := newTestCache(t, dl)

	c.Schedule(context.Background(), "pet-1", []string{"https://cdn.example.com/a.jpg"})
	c.Wait()

	if err := c.Purge(); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after purge, want 0", len(entries))
	}
}
