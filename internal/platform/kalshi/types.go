package kalshi

// MarketsResponse from GET /markets.
type MarketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

// Market represents a market from the Kalshi trade API. Prices are in cents
// (0-100); volumes and open interest are in integer cents.
type Market struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	MarketType  string `json:"market_type"`

	YesBid    int `json:"yes_bid"`
	YesAsk    int `json:"yes_ask"`
	LastPrice int `json:"last_price"`

	Volume       int64 `json:"volume"`
	Volume24h    int64 `json:"volume_24h"`
	OpenInterest int64 `json:"open_interest"`
}
