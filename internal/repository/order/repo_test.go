package order

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/clearcart/ordersearch/internal/db"
	"github.com/clearcart/ordersearch/internal/domain"
	domorder "github.com/clearcart/ordersearch/internal/domain/order"
)

// --- Mocks ---

// fakeStore is an in-memory db.Store good enough for repository tests.
type fakeStore struct {
	kv     map[string][]byte
	scores map[string]float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{kv: make(map[string][]byte), scores: make(map[string]float64)}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) Close() {}

func (f *fakeStore) WaitForReady(context.Context, time.Duration) error { return nil }

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := f.kv[k]; ok {
			out[i] = v
		}
	}
	return out, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.kv[key] = value
	return nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	delete(f.kv, key)
	return nil
}

func (f *fakeStore) ZAdd(_ context.Context, _, member string, score float64) error {
	f.scores[member] = score
	return nil
}

func (f *fakeStore) ZRangeByScore(_ context.Context, _ string, min, max float64) ([]string, error) {
	type entry struct {
		member string
		score  float64
	}
	var hits []entry
	for m, s := range f.scores {
		if s >= min && s <= max {
			hits = append(hits, entry{m, s})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score < hits[j].score })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.member
	}
	return out, nil
}

func (f *fakeStore) ZCard(context.Context, string) (int64, error) {
	return int64(len(f.scores)), nil
}

func (f *fakeStore) ZRem(_ context.Context, _, member string) error {
	delete(f.scores, member)
	return nil
}

func saveOrder(t *testing.T, repo *Repo, id string, updated time.Time) {
	t.Helper()
	err := repo.Save(context.Background(), domorder.Order{
		ID:          id,
		OrderNumber: "ORD-" + id,
		Status:      domorder.StatusPending,
		UpdatedAt:   updated,
	})
	if err != nil {
		t.Fatalf("save order %s: %v", id, err)
	}
}

// --- Tests ---

func TestFetchOne(t *testing.T) {
	repo := New(newFakeStore(), "test:")
	saveOrder(t, repo, "a", time.Now())

	o, err := repo.FetchOne(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.OrderNumber != "ORD-a" {
		t.Errorf("expected ORD-a, got %q", o.OrderNumber)
	}
}

func TestFetchOne_Missing(t *testing.T) {
	repo := New(newFakeStore(), "test:")

	_, err := repo.FetchOne(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestFetchChangedSince(t *testing.T) {
	repo := New(newFakeStore(), "test:")
	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	saveOrder(t, repo, "old", cutoff.Add(-time.Hour))
	saveOrder(t, repo, "fresh", cutoff.Add(time.Hour))
	saveOrder(t, repo, "fresher", cutoff.Add(2*time.Hour))

	got, err := repo.FetchChangedSince(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 changed orders, got %d", len(got))
	}
	if got[0].ID != "fresh" || got[1].ID != "fresher" {
		t.Errorf("expected update order, got %q then %q", got[0].ID, got[1].ID)
	}
}

func TestFetchAll_SkipsVanishedRecords(t *testing.T) {
	store := newFakeStore()
	repo := New(store, "test:")
	saveOrder(t, repo, "a", time.Now())
	saveOrder(t, repo, "b", time.Now().Add(time.Second))

	// The value disappears but the tracking entry lingers.
	delete(store.kv, "test:order:b")

	got, err := repo.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("expected the vanished record skipped, got %v", got)
	}
}

func TestCountAll(t *testing.T) {
	repo := New(newFakeStore(), "test:")
	saveOrder(t, repo, "a", time.Now())
	saveOrder(t, repo, "b", time.Now())

	n, err := repo.CountAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}

func TestDelete(t *testing.T) {
	repo := New(newFakeStore(), "test:")
	saveOrder(t, repo, "a", time.Now())

	if err := repo.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.FetchOne(context.Background(), "a"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound after delete, got %v", err)
	}
	if n, _ := repo.CountAll(context.Background()); n != 0 {
		t.Errorf("expected tracking entry removed, got count %d", n)
	}
}
