package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"weather-dashboard/internal/storage"
	"weather-dashboard/pkg/logger"
)

// DefaultKey is the record the collection is stored under.
const DefaultKey = "weatherAppFavorites"

// ErrPersistenceUnavailable is returned alongside a successful result when the
// in-memory collection changed but could not be written.
var ErrPersistenceUnavailable = errors.New("favorites persistence unavailable")

// CorruptStateError reports a stored record that cannot be decoded.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt favorites record %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// FavoriteCity is identified by its label alone, compared case-sensitively.
type FavoriteCity struct {
	Label string `json:"label" example:"Austin, Texas"`
}

// Collection is ordered by insertion.
type Collection []FavoriteCity

func (c Collection) Labels() []string {
	out := make([]string, len(c))
	for i, f := range c {
		out[i] = f.Label
	}
	return out
}

type AddResult int

const (
	Added AddResult = iota + 1
	AlreadyPresent
)

func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case AlreadyPresent:
		return "already_present"
	}
	return "unknown"
}

type RemoveResult int

const (
	Removed RemoveResult = iota + 1
	NotFound
)

func (r RemoveResult) String() string {
	switch r {
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// Store owns the favorites collection and mirrors every change into a blob
// store as a JSON array of labels.
type Store struct {
	mu    sync.RWMutex
	blobs storage.BlobStore
	key   string
	l     *logger.Logger
	items []FavoriteCity
}

func NewStore(blobs storage.BlobStore, key string, l *logger.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		blobs: blobs,
		key:   key,
		l:     l,
	}
}

// Load replaces the in-memory collection with the stored one. A missing
// record yields an empty collection. On error the in-memory collection is
// left untouched; callers are expected to Reset and carry on.
func (s *Store) Load(ctx context.Context) (Collection, error) {
	raw, found, err := s.blobs.ReadBlob(ctx, s.key)
	if err != nil {
		return nil, errors.WithMessagef(ErrPersistenceUnavailable, "read %s: %v", s.key, err)
	}

	var items []FavoriteCity
	if found && raw != "" {
		labels, err := decode(raw)
		if err != nil {
			return nil, &CorruptStateError{Key: s.key, Err: err}
		}
		items = s.dedup(labels)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.l.Info("favorites loaded", map[string]any{"key": s.key, "count": len(items)})

	return s.List(), nil
}

// Reset empties the in-memory collection without touching storage.
func (s *Store) Reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Add appends label unless it is empty or already present. The returned error
// is non-nil only when the change could not be persisted, in which case the
// result is still Added.
func (s *Store) Add(ctx context.Context, label string) (AddResult, error) {
	if label == "" {
		return AlreadyPresent, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(label) >= 0 {
		return AlreadyPresent, nil
	}

	s.items = append(s.items, FavoriteCity{Label: label})

	return Added, s.persist(ctx)
}

// Remove drops label. Removing an absent label is a no-op reported as
// NotFound.
func (s *Store) Remove(ctx context.Context, label string) (RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(label)
	if i < 0 {
		return NotFound, nil
	}

	s.items = append(s.items[:i:i], s.items[i+1:]...)

	return Removed, s.persist(ctx)
}

func (s *Store) Contains(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.indexOf(label) >= 0
}

// List returns a snapshot in insertion order.
func (s *Store) List() Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Collection, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) indexOf(label string) int {
	for i, f := range s.items {
		if f.Label == label {
			return i
		}
	}
	return -1
}

// persist writes the whole collection. Must be called with mu held.
func (s *Store) persist(ctx context.Context) error {
	raw, err := encode(s.items)
	if err != nil {
		return errors.Wrap(err, "encode favorites")
	}

	if err := s.blobs.WriteBlob(ctx, s.key, raw); err != nil {
		s.l.Warning("favorites kept in memory only", map[string]any{
			"key":   s.key,
			"count": len(s.items),
			"err":   err.Error(),
		})
		return errors.WithMessagef(ErrPersistenceUnavailable, "write %s: %v", s.key, err)
	}

	s.l.Debug("favorites persisted", map[string]any{"key": s.key, "count": len(s.items)})

	return nil
}

func (s *Store) dedup(labels []string) []FavoriteCity {
	seen := make(map[string]struct{}, len(labels))
	items := make([]FavoriteCity, 0, len(labels))
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			s.l.Warning("dropping duplicate stored favorite", map[string]any{"label": label})
			continue
		}
		seen[label] = struct{}{}
		items = append(items, FavoriteCity{Label: label})
	}
	return items
}

func encode(items []FavoriteCity) (string, error) {
	labels := make([]string, len(items))
	for i, f := range items {
		labels[i] = f.Label
	}

	data, err := json.Marshal(labels)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decode accepts a JSON array of strings; "null" decodes to no labels.
func decode(raw string) ([]string, error) {
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, err
	}
	return labels, nil
}
