package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/storage"
)

func TestMarketStorePutGet(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()

	m := model.MatchedMarket{Key: "superBowl", Title: "Super Bowl Champion 2026"}
	if err := s.Put(ctx, m); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(ctx, "superBowl")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != m.Title {
		t.Errorf("got %+v", got)
	}
}

func TestMarketStoreGetMissing(t *testing.T) {
	s := NewMarketStore()
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMarketStorePutAllReplacesAndTimestamps(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()

	if _, err := s.UpdatedAt(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("UpdatedAt before sync: %v, want ErrNotFound", err)
	}

	err := s.PutAll(ctx, []model.MatchedMarket{
		{Key: "b", Title: "second"},
		{Key: "a", Title: "first"},
	})
	if err != nil {
		t.Fatalf("PutAll failed: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 || all[0].Key != "a" || all[1].Key != "b" {
		t.Errorf("All = %+v, want sorted by key", all)
	}

	when, err := s.UpdatedAt(ctx)
	if err != nil || when.IsZero() {
		t.Errorf("UpdatedAt = %v, %v", when, err)
	}
}
