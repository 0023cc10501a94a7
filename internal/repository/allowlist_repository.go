package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// AllowlistRepository persists the set of authorized user ids as a JSON
// array of integers in a single file. The file is rewritten in full on
// every mutation; a missing or corrupt file degrades to an empty set.
type AllowlistRepository struct {
	path string
	log  zerolog.Logger

	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewAllowlistRepository(path string, log zerolog.Logger) *AllowlistRepository {
	r := &AllowlistRepository{
		path: path,
		log:  log,
		ids:  make(map[int64]struct{}),
	}
	r.Load()
	return r
}

// Load re-reads the file into memory. It never fails: unreadable or
// malformed content is logged and leaves an empty set.
func (r *AllowlistRepository) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = make(map[int64]struct{})

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.log.Warn().Err(err).Str("path", r.path).Msg("read allowlist, starting empty")
		}
		return
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("malformed allowlist, starting empty")
		return
	}

	for _, id := range ids {
		r.ids[id] = struct{}{}
	}
}

// Save overwrites the file with the current set. The error propagates so
// the invoking owner command can report it, but callers keep running.
func (r *AllowlistRepository) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *AllowlistRepository) saveLocked() error {
	ids := make([]int64, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal allowlist: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write allowlist: %w", err)
	}
	return nil
}

// Add inserts an id and persists the set. Returns false when the id was
// already present (no write happens in that case).
func (r *AllowlistRepository) Add(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; ok {
		return false, nil
	}
	r.ids[id] = struct{}{}
	if err := r.saveLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// Remove deletes an id and persists the set. Returns false when the id
// was not present.
func (r *AllowlistRepository) Remove(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; !ok {
		return false, nil
	}
	delete(r.ids, id)
	if err := r.saveLocked(); err != nil {
		return true, err
	}
	return true, nil
}

func (r *AllowlistRepository) Contains(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// List returns the ids in ascending order.
func (r *AllowlistRepository) List() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
