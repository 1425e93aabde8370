package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/atmx/listing-engine/internal/model"
)

// FileCatalog serves a product spreadsheet from disk. The file is re-read
// when its modification time changes, so edits to the workbook show up
// without a restart. A failed reload keeps serving the previous snapshot.
type FileCatalog struct {
	path  string
	sheet string

	mu       sync.Mutex
	modTime  time.Time
	snapshot *MemoryCatalog
	parsed   *Sheet
}

// NewFileCatalog loads path eagerly and fails if it cannot be parsed.
func NewFileCatalog(path, sheet string) (*FileCatalog, error) {
	c := &FileCatalog{path: path, sheet: sheet}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog file: %w", err)
	}
	if err := c.load(info.ModTime()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FileCatalog) load(modTime time.Time) error {
	parsed, err := ReadSpreadsheet(c.path, c.sheet)
	if err != nil {
		return err
	}
	c.parsed = parsed
	c.snapshot = NewMemoryCatalog(parsed.Entries...)
	c.modTime = modTime
	return nil
}

// current returns the latest snapshot, reloading it if the file changed.
func (c *FileCatalog) current() *MemoryCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(c.path)
	if err != nil {
		slog.Warn("catalog file unavailable, serving last snapshot", "path", c.path, "err", err)
		return c.snapshot
	}
	if info.ModTime().Equal(c.modTime) {
		return c.snapshot
	}

	if err := c.load(info.ModTime()); err != nil {
		slog.Warn("catalog reload failed, serving last snapshot", "path", c.path, "err", err)
		return c.snapshot
	}
	slog.Info("catalog reloaded", "path", c.path, "entries", c.snapshot.Len())
	return c.snapshot
}

func (c *FileCatalog) Lookup(ctx context.Context, sku string) (*model.CatalogEntry, error) {
	return c.current().Lookup(ctx, sku)
}

func (c *FileCatalog) List(ctx context.Context) ([]model.CatalogEntry, error) {
	return c.current().List(ctx)
}

// Columns returns the trimmed header row of the loaded sheet.
func (c *FileCatalog) Columns() []string {
	c.current()

	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.parsed.Columns...)
}

// NameColumn returns the header used for product names, or "".
func (c *FileCatalog) NameColumn() string {
	c.current()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parsed.NameColumn
}

// Path returns the file the catalog reads.
func (c *FileCatalog) Path() string {
	return c.path
}
