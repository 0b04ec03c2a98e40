package recommend

import (
	"sort"

	"travel_recommender/internal/domain"
)

// Stats aggregates the encoded features of ds per training-time cluster.
// Destinations without a label in a are skipped.
func Stats(a domain.ClusterArtifact, ds []domain.Destination) []domain.ClusterStat {
	acc := map[int]*domain.ClusterStat{}
	for _, d := range ds {
		l, ok := a.Labels[d.ID]
		if !ok {
			continue
		}
		st := acc[l]
		if st == nil {
			st = &domain.ClusterStat{Label: l}
			acc[l] = st
		}
		f := Encode(d)
		st.Count++
		st.AvgBudget += f[0]
		st.AvgClimate += f[1]
		st.AvgRating += f[2]
	}

	out := make([]domain.ClusterStat, 0, len(acc))
	for _, st := range acc {
		n := float64(st.Count)
		st.AvgBudget = round2(st.AvgBudget / n)
		st.AvgClimate = round2(st.AvgClimate / n)
		st.AvgRating = round2(st.AvgRating / n)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
