package recommend

import (
	"strings"

	"travel_recommender/internal/domain"
)

// Matches reports whether d satisfies every criterion set on q.
func Matches(d domain.Destination, q domain.DestinationQuery) bool {
	if q.Budget != "" && d.Budget != q.Budget {
		return false
	}
	if q.Climate != "" && d.Climate != q.Climate {
		return false
	}
	if q.MinRating != nil && (d.Rating == nil || *d.Rating < *q.MinRating) {
		return false
	}
	if t := strings.ToLower(strings.TrimSpace(q.Text)); t != "" {
		return strings.Contains(strings.ToLower(d.Name), t) ||
			strings.Contains(strings.ToLower(d.City), t)
	}
	return true
}

// Filter keeps the destinations matching q, preserving order.
func Filter(ds []domain.Destination, q domain.DestinationQuery) []domain.Destination {
	out := make([]domain.Destination, 0, len(ds))
	for _, d := range ds {
		if Matches(d, q) {
			out = append(out, d)
		}
	}
	return out
}

// MergeProfile applies the fields set on f over prev; omitted fields keep
// their last-known value.
func MergeProfile(prev domain.PreferenceProfile, f domain.ProfileFilter) domain.PreferenceProfile {
	out := prev
	if f.Budget != "" {
		out.Budget = f.Budget
	}
	if f.Climate != "" {
		out.Climate = f.Climate
	}
	if f.MinRating != nil {
		r := *f.MinRating
		out.MinRating = &r
	}
	return out
}
