package recommend

import (
	"fmt"
	"sort"

	"travel_recommender/internal/domain"
)

// MarkCluster flags the views whose training-time label in labels equals
// target. labels must come from the same artifact that produced target.
// Destinations missing from the label table stay unmarked.
func MarkCluster(views []domain.DestinationView, target int, labels map[int64]int) {
	for i := range views {
		l, ok := labels[views[i].ID]
		views[i].InCluster = ok && l == target
	}
}

// Rank orders cluster matches first, then the remainder; each bucket by score
// descending with ties keeping their input order.
func Rank(views []domain.DestinationView) []domain.DestinationView {
	matched := make([]domain.DestinationView, 0, len(views))
	rest := make([]domain.DestinationView, 0, len(views))
	for _, v := range views {
		if v.InCluster {
			matched = append(matched, v)
		} else {
			rest = append(rest, v)
		}
	}
	byScore := func(s []domain.DestinationView) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
	}
	byScore(matched)
	byScore(rest)
	return append(matched, rest...)
}

// Paginate returns the 1-based page of items and the total page count.
// Pages past the end are empty; pages below 1 are treated as 1.
func Paginate[T any](items []T, page, size int) ([]T, int, error) {
	if size <= 0 {
		return nil, 0, fmt.Errorf("%w: page size %d", domain.ErrInvalidArgument, size)
	}
	if page < 1 {
		page = 1
	}
	total := len(items)
	pages := (total + size - 1) / size

	start := (page - 1) * size
	if start >= total {
		return []T{}, pages, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], pages, nil
}
