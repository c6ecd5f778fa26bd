// Package imagecache mirrors pet pictures onto the local filesystem so the
// app can render them offline. Downloads happen in the background and never
// block a caller; failures are logged and retried on the next scheduling
// pass.
package imagecache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/model"
)

// Downloader fetches one remote image into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// ImageStore records where a cached file landed, so later reads prefer it.
type ImageStore interface {
	SetLocalPath(ctx context.Context, petID, url, localPath string) error
}

// Cache schedules and tracks image downloads for one cache directory.
type Cache struct {
	dir    string
	dl     Downloader
	images ImageStore
	log    *slog.Logger
	now    func() time.Time

	wg sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]bool // keyed by remote url
}

// DefaultDir returns the per-user cache directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving user cache dir: %w", err)
	}
	return filepath.Join(base, "petsync", "images"), nil
}

// New creates a Cache rooted at dir, creating the directory if needed.
func New(dir string, dl Downloader, images ImageStore, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image cache dir %q: %w", dir, err)
	}
	return &Cache{
		dir:      dir,
		dl:       dl,
		images:   images,
		log:      logger,
		now:      time.Now,
		inflight: make(map[string]bool),
	}, nil
}

// Schedule queues background downloads for every image of a pet that is not
// already cached or in flight. It returns immediately.
func (c *Cache) Schedule(ctx context.Context, petID string, urls []string) {
	for idx, url := range urls {
		if url == "" {
			continue
		}
		c.scheduleOne(ctx, petID, url, idx)
	}
}

func (c *Cache) scheduleOne(ctx context.Context, petID, url string, index int) {
	c.mu.Lock()
	if c.inflight[url] {
		c.mu.Unlock()
		return
	}
	c.inflight[url] = true
	c.mu.Unlock()

	dest := c.pathFor(petID, url, index)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, url)
			c.mu.Unlock()
		}()

		if fileExists(dest) {
			c.record(ctx, petID, url, dest)
			return
		}
		if err := c.dl.Download(ctx, url, dest); err != nil {
			c.log.Warn("image download failed", "pet", petID, "url", url, "error", err)
			return
		}
		c.log.Debug("image cached", "pet", petID, "path", dest)
		c.record(ctx, petID, url, dest)
	}()
}

func (c *Cache) record(ctx context.Context, petID, url, dest string) {
	if err := c.images.SetLocalPath(ctx, petID, url, dest); err != nil {
		c.log.Warn("recording cached image path failed", "pet", petID, "error", err)
	}
}

// Localize returns the rendering source for each stored image row: the
// cached file when it is on disk, the remote url otherwise.
func (c *Cache) Localize(images []*model.PetImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img.LocalPath != "" && fileExists(img.LocalPath) {
			out = append(out, img.LocalPath)
			continue
		}
		out = append(out, img.URL)
	}
	return out
}

// Discard removes the cached files for image rows whose urls no longer
// belong to their pet. A missing file is fine; the download may never have
// finished.
func (c *Cache) Discard(images []*model.PetImage) {
	for _, img := range images {
		if img.LocalPath == "" {
			continue
		}
		if err := os.Remove(img.LocalPath); err != nil && !os.IsNotExist(err) {
			c.log.Warn("removing stale cached image failed", "path", img.LocalPath, "error", err)
		}
	}
}

// Purge deletes every cached file. Called on logout alongside the database
// wipe.
func (c *Cache) Purge() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading image cache dir: %w", err)
	}
	var firstErr error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wait blocks until all scheduled downloads have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// pathFor builds the deterministic file name for one image. The timestamp
// component is the pet's scheduling day, so re-fetching the same image on the
// same day reuses the file.
func (c *Cache) pathFor(petID, url string, index int) string {
	day := c.now().UTC().Format("20060102")
	name := fmt.Sprintf("%s_%d_%s%s", sanitize(petID), index, day, extOf(url))
	return filepath.Join(c.dir, name)
}

func extOf(url string) string {
	trimmed := url
	if q := strings.IndexByte(trimmed, '?'); q >= 0 {
		trimmed = trimmed[:q]
	}
	ext := strings.ToLower(filepath.Ext(trimmed))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".img"
	}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
