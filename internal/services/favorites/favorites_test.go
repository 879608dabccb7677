package favorites_test

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-dashboard/internal/services/favorites"
	"weather-dashboard/internal/storage"
	"weather-dashboard/pkg/logger"
)

// flakyBlobStore wraps a MemoryStore and fails on demand.
type flakyBlobStore struct {
	*storage.MemoryStore
	failReads  bool
	failWrites bool
	writes     int
}

func newFlakyBlobStore() *flakyBlobStore {
	return &flakyBlobStore{MemoryStore: storage.NewMemoryStore()}
}

func (f *flakyBlobStore) ReadBlob(ctx context.Context, key string) (string, bool, error) {
	if f.failReads {
		return "", false, errors.New("storage disabled")
	}
	return f.MemoryStore.ReadBlob(ctx, key)
}

func (f *flakyBlobStore) WriteBlob(ctx context.Context, key, value string) error {
	f.writes++
	if f.failWrites {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.WriteBlob(ctx, key, value)
}

func newStore(t *testing.T, blobs storage.BlobStore) *favorites.Store {
	t.Helper()
	return favorites.NewStore(blobs, favorites.DefaultKey, logger.NewZapLogger("test-app", io.Discard))
}

func labels(s *favorites.Store) []string {
	return s.List().Labels()
}

func TestStore_AddToEmpty(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())

	res, err := s.Add(ctx, "Austin, Texas")
	require.NoError(t, err)

	assert.Equal(t, favorites.Added, res)
	assert.Equal(t, []string{"Austin, Texas"}, labels(s))
	assert.True(t, s.Contains("Austin, Texas"))
}

func TestStore_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	blobs := newFlakyBlobStore()
	s := newStore(t, blobs)

	_, err := s.Add(ctx, "Austin, Texas")
	require.NoError(t, err)
	writes := blobs.writes

	res, err := s.Add(ctx, "Austin, Texas")
	require.NoError(t, err)

	assert.Equal(t, favorites.AlreadyPresent, res)
	assert.Equal(t, []string{"Austin, Texas"}, labels(s))
	assert.Equal(t, writes, blobs.writes, "a duplicate add must not persist")
}

func TestStore_AddIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())

	_, _ = s.Add(ctx, "Paris, FR")
	res, err := s.Add(ctx, "paris, FR")
	require.NoError(t, err)

	assert.Equal(t, favorites.Added, res)
	assert.Equal(t, []string{"Paris, FR", "paris, FR"}, labels(s))
}

func TestStore_AddEmptyLabel(t *testing.T) {
	blobs := newFlakyBlobStore()
	s := newStore(t, blobs)

	res, err := s.Add(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, favorites.AlreadyPresent, res)
	assert.Empty(t, s.List())
	assert.Zero(t, blobs.writes)
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())
	_, _ = s.Add(ctx, "Austin, Texas")
	_, _ = s.Add(ctx, "Paris, FR")

	res, err := s.Remove(ctx, "Austin, Texas")
	require.NoError(t, err)

	assert.Equal(t, favorites.Removed, res)
	assert.Equal(t, []string{"Paris, FR"}, labels(s))
	assert.False(t, s.Contains("Austin, Texas"))
}

func TestStore_RemoveTwice(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())
	_, _ = s.Add(ctx, "Austin, Texas")
	_, _ = s.Add(ctx, "Paris, FR")

	first, err := s.Remove(ctx, "Paris, FR")
	require.NoError(t, err)
	after := labels(s)

	second, err := s.Remove(ctx, "Paris, FR")
	require.NoError(t, err)

	assert.Equal(t, favorites.Removed, first)
	assert.Equal(t, favorites.NotFound, second)
	assert.Equal(t, after, labels(s))
}

func TestStore_ListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryStore())
	_, _ = s.Add(ctx, "Austin, Texas")

	snapshot := s.List()
	snapshot[0].Label = "mutated"

	assert.Equal(t, []string{"Austin, Texas"}, labels(s))
}

func TestStore_LoadEmpty(t *testing.T) {
	s := newStore(t, storage.NewMemoryStore())

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_LoadRoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryStore()
	s := newStore(t, blobs)

	for _, l := range []string{"Washington, D.C.", "Austin, Texas", "Paris, FR", "Quote \"City\", ZZ"} {
		_, err := s.Add(ctx, l)
		require.NoError(t, err)
	}
	_, err := s.Remove(ctx, "Austin, Texas")
	require.NoError(t, err)

	reloaded := newStore(t, blobs)
	got, err := reloaded.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, s.List(), got)
	assert.Equal(t, []string{"Washington, D.C.", "Paris, FR", "Quote \"City\", ZZ"}, got.Labels())
}

func TestStore_LoadReadsBrowserFormat(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryStore()
	require.NoError(t, blobs.WriteBlob(ctx, favorites.DefaultKey, `["Austin, Texas","Paris, FR","Austin, Texas"]`))

	got, err := newStore(t, blobs).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Austin, Texas", "Paris, FR"}, got.Labels())
}

func TestStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryStore()
	require.NoError(t, blobs.WriteBlob(ctx, favorites.DefaultKey, `{"not":"a list"}`))

	s := newStore(t, blobs)
	_, err := s.Load(ctx)

	var corrupt *favorites.CorruptStateError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, favorites.DefaultKey, corrupt.Key)

	s.Reset()
	assert.Empty(t, s.List())

	res, err := s.Add(ctx, "Paris, FR")
	require.NoError(t, err)
	assert.Equal(t, favorites.Added, res)
}

func TestStore_LoadUnavailable(t *testing.T) {
	blobs := newFlakyBlobStore()
	blobs.failReads = true

	_, err := newStore(t, blobs).Load(context.Background())
	assert.ErrorIs(t, err, favorites.ErrPersistenceUnavailable)
}

func TestStore_WriteFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	blobs := newFlakyBlobStore()
	s := newStore(t, blobs)
	blobs.failWrites = true

	res, err := s.Add(ctx, "Austin, Texas")
	assert.Equal(t, favorites.Added, res)
	assert.ErrorIs(t, err, favorites.ErrPersistenceUnavailable)
	assert.True(t, s.Contains("Austin, Texas"))

	// a future session does not see the change
	got, err := newStore(t, blobs.MemoryStore).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	rem, err := s.Remove(ctx, "Austin, Texas")
	assert.Equal(t, favorites.Removed, rem)
	assert.ErrorIs(t, err, favorites.ErrPersistenceUnavailable)
	assert.False(t, s.Contains("Austin, Texas"))
}

func TestStore_RandomSequencesStayConsistent(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	pool := []string{"Austin, Texas", "Paris, FR", "Washington, D.C.", "Oslo, NO", "Lima, PE", ""}

	blobs := storage.NewMemoryStore()
	s := newStore(t, blobs)

	for i := 0; i < 500; i++ {
		label := pool[rng.Intn(len(pool))]
		if rng.Intn(2) == 0 {
			_, err := s.Add(ctx, label)
			require.NoError(t, err)
			if label != "" {
				assert.True(t, s.Contains(label))
			}
		} else {
			_, err := s.Remove(ctx, label)
			require.NoError(t, err)
			assert.False(t, s.Contains(label))
		}

		seen := map[string]bool{}
		for _, l := range labels(s) {
			require.False(t, seen[l], "duplicate label %q", l)
			seen[l] = true
		}
	}

	reloaded, err := newStore(t, blobs).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.List(), reloaded)
}

func TestResultStrings(t *testing.T) {
	assert.Equal(t, "added", favorites.Added.String())
	assert.Equal(t, "already_present", favorites.AlreadyPresent.String())
	assert.Equal(t, "removed", favorites.Removed.String())
	assert.Equal(t, "not_found", favorites.NotFound.String())
}
