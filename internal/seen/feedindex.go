package seen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/dataset"
	"github.com/Darryl244/SEBI-Telegram-Fraud-Detection/internal/model"
)

// FeedIndex rebuilds the seen-set from the identifiers recorded in the alerts
// feed. The index is reloaded whenever the file's size or mtime changes.
type FeedIndex struct {
	path string

	mu    sync.Mutex
	ids   map[string]struct{}
	size  int64
	mtime time.Time
	ready bool
}

// NewFeedIndex creates an index over the feed at path
func NewFeedIndex(path string) *FeedIndex {
	return &FeedIndex{path: path}
}

// Contains reports whether the feed (or a later Add) holds id
func (f *FeedIndex) Contains(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.refresh(); err != nil {
		return false, err
	}
	_, ok := f.ids[id]
	return ok, nil
}

// Add records ids that were just appended to the feed.
// The file itself is written by the feed store, not here.
func (f *FeedIndex) Add(_ context.Context, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.refresh(); err != nil {
		return err
	}
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
	return nil
}

// Len returns the number of indexed identifiers
func (f *FeedIndex) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

func (f *FeedIndex) refresh() error {
	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if !f.ready {
			f.ids = make(map[string]struct{})
			f.ready = true
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat feed: %w", err)
	}

	if f.ready && info.Size() == f.size && info.ModTime().Equal(f.mtime) {
		return nil
	}

	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	defer file.Close()

	table, err := dataset.Parse(f.path, file)
	if err != nil {
		return fmt.Errorf("parse feed: %w", err)
	}

	ids := make(map[string]struct{}, table.Len()+len(f.ids))
	// Keep ids added since the last load; the feed may not have caught up yet.
	for id := range f.ids {
		ids[id] = struct{}{}
	}
	if table.Has(model.ColMessageID) {
		for _, row := range table.Rows {
			ids[table.Value(row, model.ColMessageID)] = struct{}{}
		}
	}

	f.ids = ids
	f.size = info.Size()
	f.mtime = info.ModTime()
	f.ready = true
	return nil
}
