package polymarket

import (
	"encoding/json"
	"fmt"
)

// Event is a Gamma API event: the top-level object grouping one or more
// outcome markets. Volumes are already dollar-denominated.
type Event struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Category  string      `json:"category"`
	Image     string      `json:"image"`
	Icon      string      `json:"icon"`
	Volume    FlexFloat   `json:"volume"`
	Volume24h FlexFloat   `json:"volume24hr"`
	Tags      []Tag       `json:"tags"`
	Markets   []SubMarket `json:"markets"`
}

// Tag is a Gamma event tag; the first tag's label doubles as a category hint.
type Tag struct {
	Label string `json:"label"`
}

// SubMarket is one outcome market inside an event. Gamma encodes
// outcomePrices and outcomes as JSON strings inside the JSON document
// ("[\"0.65\", \"0.35\"]"), so they are kept raw here and decoded on demand.
type SubMarket struct {
	ID               string    `json:"id"`
	Question         string    `json:"question"`
	Slug             string    `json:"slug"`
	Image            string    `json:"image"`
	Volume           FlexFloat `json:"volume"`
	RawOutcomePrices string    `json:"outcomePrices"`
	RawOutcomes      string    `json:"outcomes"`
}

// OutcomePrices decodes the double-encoded price array. Prices are
// probabilities in [0,1], one per outcome.
func (m SubMarket) OutcomePrices() ([]float64, error) {
	if m.RawOutcomePrices == "" {
		return nil, nil
	}
	// Prices arrive as an array of numeric strings; some older payloads use
	// bare numbers.
	var raw []string
	if err := json.Unmarshal([]byte(m.RawOutcomePrices), &raw); err != nil {
		var nums []float64
		if err2 := json.Unmarshal([]byte(m.RawOutcomePrices), &nums); err2 == nil {
			return nums, nil
		}
		return nil, fmt.Errorf("decode outcomePrices %q: %w", m.RawOutcomePrices, err)
	}
	prices := make([]float64, 0, len(raw))
	for _, s := range raw {
		var f float64
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			return nil, fmt.Errorf("decode outcome price %q: %w", s, err)
		}
		prices = append(prices, f)
	}
	return prices, nil
}

// Outcomes decodes the double-encoded outcome-name array.
func (m SubMarket) Outcomes() ([]string, error) {
	if m.RawOutcomes == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(m.RawOutcomes), &names); err != nil {
		return nil, fmt.Errorf("decode outcomes %q: %w", m.RawOutcomes, err)
	}
	return names, nil
}

// FlexFloat accepts a JSON number or a numeric string. Gamma switches between
// the two across fields and API versions.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		var v float64
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return fmt.Errorf("numeric string %q: %w", s, err)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}
