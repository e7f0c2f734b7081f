// Package category provides the single shared keyword table that classifies
// market titles and platform-supplied category labels into the dashboard's
// fixed taxonomy. Both platform adapters use it, so the keyword sets cannot
// drift apart per call site.
package category

import (
	"strings"

	"github.com/predictionmetrics/marketshare/internal/model"
)

// Classification order matters: politics keywords are checked first because
// they are the most common, and several sports/social keywords ("win",
// "award") would otherwise shadow them.
var ordered = []model.Category{
	model.CategoryPolitics,
	model.CategorySports,
	model.CategoryCrypto,
	model.CategorySocial,
}

var keywords = map[model.Category][]string{
	model.CategoryPolitics: {
		"election", "president", "trump", "government", "senate", "shutdown",
		"democrat", "republican", "congress", "fed", "biden", "harris",
		"house", "congressional", "presidential", "governor", "mayor",
		"ukraine", "ceasefire",
	},
	model.CategorySports: {
		"nfl", "nba", "super bowl", "football", "basketball", "mvp",
		"champion", "mlb", "world series", "playoff", "finals", "nhl",
		"hockey", "soccer", "fifa", "premier league", "uefa",
		"champions league", "world cup", "olympics", "boxing", "ufc", "mma",
		"tennis", "golf", "formula 1", "f1", "nascar", "ncaa",
		"college football", "college basketball", "baseball", "stanley cup",
		"atp", "wta", "grand slam", "wimbledon", "us open", "french open",
		"australian open", "la liga",
	},
	model.CategoryCrypto: {
		"bitcoin", "btc", "crypto", "ethereum", "eth", "doge", "blockchain",
		"defi", "solana", "cardano", "stablecoin",
	},
	model.CategorySocial: {
		"twitter", "elon", "musk", "social media", "facebook", "tweet",
		"instagram", "tiktok", "x.com", "linkedin", "reddit", "oscar",
		"movie", "netflix", "mrbeast", "celebrity", "music", "emmy",
		"grammy", "streaming", "youtube", "spotify", "influencer", "podcast",
		"billboard", "hot 100", "album", "song", "artist", "singer",
		"rapper", "entertainment", "film", "grossing",
	},
}

// FromTitle classifies a market title by keyword scan. Titles matching no
// category fall to Other.
func FromTitle(title string) model.Category {
	t := strings.ToLower(title)
	if t == "" {
		return model.CategoryOther
	}
	for _, cat := range ordered {
		for _, kw := range keywords[cat] {
			if strings.Contains(t, kw) {
				return cat
			}
		}
	}
	return model.CategoryOther
}

// Normalize maps a platform-supplied category label (Polymarket event
// categories, tag labels) onto the taxonomy. Labels that are themselves
// meaningful titles fall back to the keyword scan.
func Normalize(raw string) model.Category {
	c := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case c == "":
		return model.CategoryOther
	case strings.Contains(c, "politic"), strings.Contains(c, "geopolitic"):
		return model.CategoryPolitics
	case strings.Contains(c, "sport"):
		return model.CategorySports
	case strings.Contains(c, "crypto"):
		return model.CategoryCrypto
	case strings.Contains(c, "social"), strings.Contains(c, "culture"),
		strings.Contains(c, "entertainment"), strings.Contains(c, "pop"):
		return model.CategorySocial
	case strings.Contains(c, "data"), strings.Contains(c, "economics"):
		return model.CategoryData
	}
	return FromTitle(raw)
}
