package recommend

import (
	"math"

	"travel_recommender/internal/domain"
)

// Affinity weights and per-attribute partial credit.
const (
	climateWeight = 0.4
	budgetWeight  = 0.3
	ratingWeight  = 0.3

	climateMiss   = 0.5
	budgetMiss    = 0.3
	ratingUnknown = 0.5
)

// Score returns the affinity of d for p in [0,100], rounded to two decimals.
func Score(d domain.Destination, p domain.PreferenceProfile) float64 {
	climate := climateMiss
	if d.Climate == p.Climate {
		climate = 1.0
	}
	budget := budgetMiss
	if d.Budget == p.Budget {
		budget = 1.0
	}

	// all-or-nothing cutoff; unknown on either side is neutral
	rating := ratingUnknown
	if d.Rating != nil && p.MinRating != nil {
		rating = 0
		if *d.Rating >= *p.MinRating {
			rating = *p.MinRating / 5.0
		}
	}

	s := 100 * (climateWeight*climate + budgetWeight*budget + ratingWeight*rating)
	return round2(clamp(s, 0, 100))
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
