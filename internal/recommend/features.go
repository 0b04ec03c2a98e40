package recommend

import "travel_recommender/internal/domain"

// FeatureCount is the length of every encoded vector: [budget, climate, rating].
const FeatureCount = 3

// fallbackOrdinal is used for budget and climate values outside the tables.
// Destinations and profiles must share it or cluster comparisons drift apart.
const fallbackOrdinal = 1

var budgetOrdinals = map[domain.Budget]float64{
	domain.BudgetLow:    0,
	domain.BudgetMedium: 1,
	domain.BudgetHigh:   2,
}

var climateOrdinals = map[domain.Climate]float64{
	domain.ClimateTropical:  0,
	domain.ClimateSavannah:  1,
	domain.ClimateArid:      2,
	domain.ClimateTemperate: 3,
}

func BudgetOrdinal(b domain.Budget) float64 {
	if v, ok := budgetOrdinals[b]; ok {
		return v
	}
	return fallbackOrdinal
}

func ClimateOrdinal(c domain.Climate) float64 {
	if v, ok := climateOrdinals[c]; ok {
		return v
	}
	return fallbackOrdinal
}

// Encode maps a destination into feature space.
func Encode(d domain.Destination) []float64 {
	return encode(d.Budget, d.Climate, d.Rating)
}

// EncodeProfile maps a preference profile into the same feature space as Encode.
func EncodeProfile(p domain.PreferenceProfile) []float64 {
	return encode(p.Budget, p.Climate, p.MinRating)
}

func encode(b domain.Budget, c domain.Climate, rating *float64) []float64 {
	r := 0.0
	if rating != nil {
		r = *rating
	}
	return []float64{BudgetOrdinal(b), ClimateOrdinal(c), r}
}
