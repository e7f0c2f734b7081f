package polymarket

import (
	"regexp"
	"sort"
	"strings"

	"github.com/predictionmetrics/marketshare/internal/model"
)

var (
	willWinRe     = regexp.MustCompile(`(?i)will\s+(.+?)\s+win\s+`)
	leadingDashRe = regexp.MustCompile(`^[-–—]\s*`)
	questionRe    = regexp.MustCompile(`(?i)^(will|who|what|when|where)\s+`)
	willPrefixRe  = regexp.MustCompile(`(?i)^will\s+`)
)

// candidateName pulls the competitor name out of an outcome-market question.
// Gamma questions follow a handful of templates; each is tried in turn.
func candidateName(question, eventTitle string) string {
	// "Will the Chiefs win Super Bowl LX?" -> "the Chiefs"
	if m := willWinRe.FindStringSubmatch(question); m != nil {
		return strings.TrimSpace(m[1])
	}

	// "Super Bowl Champion - Chiefs" -> "Chiefs"
	if strings.Contains(question, " - ") {
		parts := strings.Split(question, " - ")
		return strings.TrimSpace(parts[len(parts)-1])
	}

	// Question repeats the event title: strip it and the boilerplate around it.
	if eventTitle != "" && strings.Contains(question, eventTitle) {
		name := strings.TrimSpace(strings.Replace(question, eventTitle, "", 1))
		name = leadingDashRe.ReplaceAllString(name, "")
		name = willPrefixRe.ReplaceAllString(name, "")
		name = strings.TrimSuffix(strings.TrimSpace(name), "?")
		return strings.TrimSpace(name)
	}

	// Last resort: text after the final separator.
	if idx := strings.LastIndexAny(question, "?-–—"); idx >= 0 && idx < len(question)-1 {
		return strings.TrimSpace(question[idx+1:])
	}
	return question
}

// ExtractCandidates derives the displayed outcome list for an event.
//
// Multi-outcome events list one market per competitor: each market's question
// names the competitor and its first outcome price is that competitor's odds.
// Single-market events either carry named outcomes or are plain binary
// markets, which fall back to complementary YES/NO. At most two candidates
// are returned, highest odds first.
func ExtractCandidates(markets []SubMarket, eventTitle string) []model.Candidate {
	if len(markets) == 0 {
		return []model.Candidate{{Name: "YES", Odds: 50}, {Name: "NO", Odds: 50}}
	}

	if len(markets) > 1 {
		var out []model.Candidate
		for _, m := range markets {
			name := candidateName(m.Question, eventTitle)
			name = questionRe.ReplaceAllString(name, "")
			name = strings.TrimSpace(strings.TrimSuffix(name, "?"))
			if name == "" || strings.EqualFold(name, "yes") || strings.EqualFold(name, "no") {
				continue
			}

			prices, err := m.OutcomePrices()
			if err != nil || len(prices) == 0 {
				continue
			}
			out = append(out, model.Candidate{
				Name: strings.ToUpper(name),
				Odds: roundPct(prices[0]),
			})
		}
		if len(out) > 0 {
			return topTwo(out)
		}
	}

	// Single market: named outcomes if present, else binary YES/NO.
	m := markets[0]
	prices, err := m.OutcomePrices()
	if err != nil {
		return []model.Candidate{{Name: "YES", Odds: 50}, {Name: "NO", Odds: 50}}
	}
	yes, no := 50, 50
	if len(prices) >= 2 {
		yes = roundPct(prices[0])
		no = roundPct(prices[1])
	}

	outcomes, err := m.Outcomes()
	if err == nil {
		var named []model.Candidate
		for i, name := range outcomes {
			if name == "" || name == "Yes" || name == "No" {
				continue
			}
			if i >= len(prices) {
				break
			}
			named = append(named, model.Candidate{
				Name: strings.ToUpper(name),
				Odds: roundPct(prices[i]),
			})
		}
		if len(named) > 0 {
			return topTwo(named)
		}
	}

	return []model.Candidate{{Name: "YES", Odds: yes}, {Name: "NO", Odds: no}}
}

func topTwo(cands []model.Candidate) []model.Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Odds > cands[j].Odds
	})
	if len(cands) > 2 {
		cands = cands[:2]
	}
	return cands
}

func roundPct(price float64) int {
	return int(price*100 + 0.5)
}
