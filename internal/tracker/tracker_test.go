package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/storage/memory"
)

type fakeMatcher struct {
	matched []model.MatchedMarket
	err     error
	calls   int
}

func (f *fakeMatcher) MatchAll(_ context.Context, _ []model.MarketConfig) ([]model.MatchedMarket, error) {
	f.calls++
	return f.matched, f.err
}

var testConfigs = []model.MarketConfig{
	{Key: "superBowl", SearchTerms: []string{"super", "bowl"}, Category: model.CategorySports},
	{Key: "demNominee2028", SearchTerms: []string{"democratic", "nominee", "2028"}, Category: model.CategoryPolitics},
}

func TestSyncStoresSnapshots(t *testing.T) {
	m := &fakeMatcher{matched: []model.MatchedMarket{
		{Key: "superBowl", Title: "Super Bowl Champion 2026"},
	}}
	store := memory.NewMarketStore()
	tr := New(testConfigs, m, store, nil)

	matched, err := tr.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("matched = %d", len(matched))
	}

	got, err := store.Get(context.Background(), "superBowl")
	if err != nil || got.Title != "Super Bowl Champion 2026" {
		t.Errorf("stored = %+v, %v", got, err)
	}
}

func TestSyncMatcherError(t *testing.T) {
	m := &fakeMatcher{err: errors.New("gamma down")}
	tr := New(testConfigs, m, memory.NewMarketStore(), nil)

	if _, err := tr.Sync(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestMarketsSyncsWhenEmpty(t *testing.T) {
	m := &fakeMatcher{matched: []model.MatchedMarket{{Key: "superBowl"}}}
	tr := New(testConfigs, m, memory.NewMarketStore(), nil)

	markets, err := tr.Markets(context.Background())
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if len(markets) != 1 || m.calls != 1 {
		t.Errorf("markets = %d, matcher calls = %d", len(markets), m.calls)
	}

	// Second read serves the snapshot without re-syncing.
	if _, err := tr.Markets(context.Background()); err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("matcher calls = %d, want snapshot served from store", m.calls)
	}
}

func TestSyncKeepsEarlierSnapshotsForUnmatchedConfigs(t *testing.T) {
	store := memory.NewMarketStore()
	m := &fakeMatcher{matched: []model.MatchedMarket{
		{Key: "superBowl", Title: "old"},
		{Key: "demNominee2028", Title: "nominee"},
	}}
	tr := New(testConfigs, m, store, nil)
	if _, err := tr.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	// Next cycle the second config finds no match.
	m.matched = []model.MatchedMarket{{Key: "superBowl", Title: "new"}}
	if _, err := tr.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	all, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("stored = %d, want stale snapshot retained", len(all))
	}
	got, _ := store.Get(context.Background(), "superBowl")
	if got.Title != "new" {
		t.Errorf("superBowl = %q, want refreshed", got.Title)
	}
}
