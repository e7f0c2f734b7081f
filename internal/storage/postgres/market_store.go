package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/storage"
)

// MarketStore is a Postgres implementation of storage.MarketStore. Candidates
// are stored as a JSONB column; the snapshot row is upserted per config key.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a market store on the given pool.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const upsertMarketSQL = `
INSERT INTO matched_markets (
	key, platform, title, candidates, volume, raw_volume, url, image, category, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (key) DO UPDATE SET
	platform = EXCLUDED.platform,
	title = EXCLUDED.title,
	candidates = EXCLUDED.candidates,
	volume = EXCLUDED.volume,
	raw_volume = EXCLUDED.raw_volume,
	url = EXCLUDED.url,
	image = EXCLUDED.image,
	category = EXCLUDED.category,
	updated_at = EXCLUDED.updated_at`

func (s *MarketStore) Put(ctx context.Context, m model.MatchedMarket) error {
	candidates, err := json.Marshal(m.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertMarketSQL,
		m.Key, string(m.Platform), m.Title, candidates, m.Volume,
		m.RawVolume, m.URL, m.Image, string(m.Category), m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert matched market %s: %w", m.Key, err)
	}
	return nil
}

func (s *MarketStore) PutAll(ctx context.Context, markets []model.MatchedMarket) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range markets {
		candidates, err := json.Marshal(m.Candidates)
		if err != nil {
			return fmt.Errorf("marshal candidates for %s: %w", m.Key, err)
		}
		_, err = tx.Exec(ctx, upsertMarketSQL,
			m.Key, string(m.Platform), m.Title, candidates, m.Volume,
			m.RawVolume, m.URL, m.Image, string(m.Category), m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert matched market %s: %w", m.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const selectMarketSQL = `
SELECT key, platform, title, candidates, volume, raw_volume, url, image, category, updated_at
FROM matched_markets`

func (s *MarketStore) Get(ctx context.Context, key string) (model.MatchedMarket, error) {
	row := s.pool.QueryRow(ctx, selectMarketSQL+" WHERE key = $1", key)
	m, err := scanMarket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MatchedMarket{}, storage.ErrNotFound
	}
	if err != nil {
		return model.MatchedMarket{}, fmt.Errorf("get matched market %s: %w", key, err)
	}
	return m, nil
}

func (s *MarketStore) All(ctx context.Context) ([]model.MatchedMarket, error) {
	rows, err := s.pool.Query(ctx, selectMarketSQL+" ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query matched markets: %w", err)
	}
	defer rows.Close()

	var out []model.MatchedMarket
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan matched market: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matched markets: %w", err)
	}
	return out, nil
}

func (s *MarketStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	var when *time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT MAX(updated_at) FROM matched_markets").Scan(&when)
	if err != nil {
		return time.Time{}, fmt.Errorf("query last sync time: %w", err)
	}
	if when == nil {
		return time.Time{}, storage.ErrNotFound
	}
	return *when, nil
}

func scanMarket(row pgx.Row) (model.MatchedMarket, error) {
	var (
		m          model.MatchedMarket
		platform   string
		category   string
		candidates []byte
	)
	err := row.Scan(&m.Key, &platform, &m.Title, &candidates, &m.Volume,
		&m.RawVolume, &m.URL, &m.Image, &category, &m.UpdatedAt)
	if err != nil {
		return model.MatchedMarket{}, err
	}
	if err := json.Unmarshal(candidates, &m.Candidates); err != nil {
		return model.MatchedMarket{}, fmt.Errorf("decode candidates: %w", err)
	}
	m.Platform = model.Platform(platform)
	m.Category = model.Category(category)
	return m, nil
}
