package app

import (
	"strconv"
	"strings"

	"travel_recommender/internal/domain"
	"travel_recommender/internal/recommend"
	"travel_recommender/internal/shared"
)

/********** alias registry (single source of truth) **********/

var hotelAliases = map[string][]string{
	"title":  {"title", "name", "cardTitle.string"},
	"info":   {"primaryInfo", "secondaryInfo", "primaryInfo.text"},
	"price":  {"priceForDisplay", "priceForDisplay.text", "commerceInfo.priceForDisplay.string"},
	"rating": {"bubbleRating.rating", "rating", "reviewSummary.rating"},
}

// budget thresholds over the parsed nightly price
const (
	lowBudgetBelow    = 50_000
	mediumBudgetBelow = 200_000
)

const (
	defaultInfo = "No additional info"
	imageSize   = "800"
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return &s
		}
	}
	return nil
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstPhotoURL: first cardPhotos[].sizes.urlTemplate with the size placeholders filled.
func firstPhotoURL(m map[string]any) *string {
	photos, ok := lookupAny(m, "cardPhotos").([]any)
	if !ok {
		return nil
	}
	for _, it := range photos {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if tpl := lookupStr(obj, "sizes.urlTemplate"); tpl != "" {
			u := strings.NewReplacer("{width}", imageSize, "{height}", imageSize).Replace(tpl)
			return &u
		}
	}
	return nil
}

/********** mappers **********/

// BudgetFromPrice buckets a raw display price into a budget category.
func BudgetFromPrice(price *string) domain.Budget {
	if price == nil || strings.TrimSpace(*price) == "" {
		return domain.BudgetUnknown
	}
	_, n, ok := recommend.ParsePrice(*price)
	switch {
	case !ok || n <= 0:
		return domain.BudgetUnknown
	case n < lowBudgetBelow:
		return domain.BudgetLow
	case n < mediumBudgetBelow:
		return domain.BudgetMedium
	default:
		return domain.BudgetHigh
	}
}

// mapHotel turns one hotel-search result into a destination of loc.
// Results without a title are dropped.
func mapHotel(loc shared.Location, p map[string]any) (domain.Destination, bool) {
	title := firstNonEmptyAlias(p, hotelAliases, "title")
	if title == nil {
		return domain.Destination{}, false
	}
	price := firstNonEmptyAlias(p, hotelAliases, "price")
	info := firstNonEmptyAlias(p, hotelAliases, "info")
	if info == nil {
		s := defaultInfo
		info = &s
	}
	return domain.Destination{
		Name:     *title,
		City:     loc.City,
		Climate:  loc.Climate,
		Budget:   BudgetFromPrice(price),
		Info:     info,
		Rating:   getFloatFlexible(p, hotelAliases["rating"]...),
		Price:    price,
		ImageURL: firstPhotoURL(p),
	}, true
}

func mapHotels(loc shared.Location, in []map[string]any) []domain.Destination {
	out := make([]domain.Destination, 0, len(in))
	for _, p := range in {
		if d, ok := mapHotel(loc, p); ok {
			out = append(out, d)
		}
	}
	return out
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FallbackDestinations is seeded when the hotel search yields nothing.
// Climates outside the fixed enumeration are kept verbatim.
func FallbackDestinations() []domain.Destination {
	type fb struct {
		name, country string
		climate       domain.Climate
		budget        domain.Budget
		description   string
	}
	rows := []fb{
		{"Bali", "Indonesia", domain.ClimateTropical, domain.BudgetMedium, "A beautiful island known for its beaches, temples, and rice terraces."},
		{"Santorini", "Greece", "Mediterranean", domain.BudgetHigh, "Famous for its stunning sunsets and white-washed buildings."},
		{"Banff", "Canada", "Continental", domain.BudgetMedium, "Known for its stunning mountain scenery and outdoor activities."},
		{"Reykjavik", "Iceland", "Arctic", domain.BudgetHigh, "The capital city known for its unique architecture and vibrant culture."},
		{"Dubai", "UAE", "Desert", domain.BudgetHigh, "Famous for luxury shopping, ultramodern architecture, and a lively nightlife scene."},
		{"Marrakech", "Morocco", "Desert", domain.BudgetMedium, "Known for its historical medina, vibrant souks, and beautiful gardens."},
	}
	out := make([]domain.Destination, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Destination{
			Name:    r.name,
			City:    r.country,
			Climate: r.climate,
			Budget:  r.budget,
			Info:    ptrStr(r.description),
		})
	}
	return out
}
