package share

import (
	"context"
	"testing"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
)

func TestResponseCacheTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := newResponseCache(time.Minute, func() time.Time { return now })

	_, gen := c.begin(context.Background(), "k")
	c.store("k", gen, model.ShareResponse{TotalValue: 1})

	if resp, ok := c.lookup("k"); !ok || resp.TotalValue != 1 {
		t.Fatalf("lookup = %+v, %v", resp, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := c.lookup("k"); ok {
		t.Fatal("expired entry served")
	}
}

func TestResponseCacheSupersede(t *testing.T) {
	c := newResponseCache(time.Minute, nil)

	ctx1, gen1 := c.begin(context.Background(), "k")
	ctx2, gen2 := c.begin(context.Background(), "k")

	// Beginning the second fetch cancels the first.
	select {
	case <-ctx1.Done():
	default:
		t.Fatal("superseded fetch context not cancelled")
	}
	if ctx2.Err() != nil {
		t.Fatal("new fetch context should be live")
	}

	// The stale fetch's result must not overwrite the newer one.
	c.store("k", gen2, model.ShareResponse{TotalValue: 2})
	c.store("k", gen1, model.ShareResponse{TotalValue: 1})

	resp, ok := c.lookup("k")
	if !ok || resp.TotalValue != 2 {
		t.Fatalf("lookup = %+v, %v; want the newer result", resp, ok)
	}
}
