package recommend

import (
	"math"
	"math/rand/v2"
)

const (
	maxIterations = 300
	tolerance     = 1e-4
)

// standardizer holds per-column mean and scale fitted over one batch.
type standardizer struct {
	mean  []float64
	scale []float64
}

// fitStandardizer computes zero-mean/unit-variance parameters (population
// variance). Constant columns get scale 1 so they transform to zero.
func fitStandardizer(x [][]float64) standardizer {
	dim := len(x[0])
	st := standardizer{mean: make([]float64, dim), scale: make([]float64, dim)}
	n := float64(len(x))
	for _, row := range x {
		for j, v := range row {
			st.mean[j] += v
		}
	}
	for j := range st.mean {
		st.mean[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - st.mean[j]
			st.scale[j] += d * d
		}
	}
	for j := range st.scale {
		sd := math.Sqrt(st.scale[j] / n)
		if sd == 0 {
			sd = 1
		}
		st.scale[j] = sd
	}
	return st
}

func (s standardizer) transform(v []float64) []float64 {
	out := make([]float64, len(v))
	for j := range v {
		out[j] = (v[j] - s.mean[j]) / s.scale[j]
	}
	return out
}

type kmeansResult struct {
	centroids [][]float64
	labels    []int
}

// fitKMeans runs k-means++ seeding followed by Lloyd iterations. The same
// input, k and seed always give the same centroids and labels. k is capped at
// the number of points.
func fitKMeans(x [][]float64, k int, seed uint64) kmeansResult {
	if k > len(x) {
		k = len(x)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	centroids := seedCentroids(x, k, rng)

	labels := make([]int, len(x))
	for i := range labels {
		labels[i] = -1
	}
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range x {
			if c := nearest(p, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		shift := 0.0
		for c := range centroids {
			next, ok := meanOf(x, labels, c)
			if !ok {
				continue // empty cluster keeps its centroid
			}
			shift += sqDist(next, centroids[c])
			centroids[c] = next
		}
		if shift <= tolerance*tolerance {
			for i, p := range x {
				labels[i] = nearest(p, centroids)
			}
			break
		}
	}
	return kmeansResult{centroids: centroids, labels: labels}
}

func seedCentroids(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(x[rng.IntN(len(x))]))

	d2 := make([]float64, len(x))
	for len(centroids) < k {
		total := 0.0
		for i, p := range x {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := sqDist(p, c); d < best {
					best = d
				}
			}
			d2[i] = best
			total += best
		}

		var pick int
		if total > 0 {
			// sample proportional to squared distance; rounding falls through to the last candidate
			r := rng.Float64() * total
			for i, d := range d2 {
				if d == 0 {
					continue
				}
				pick = i
				if r -= d; r <= 0 {
					break
				}
			}
		} else {
			pick = rng.IntN(len(x))
		}
		centroids = append(centroids, clone(x[pick]))
	}
	return centroids
}

// nearest returns the index of the closest centroid; ties go to the lowest index.
func nearest(p []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centroids {
		if d := sqDist(p, ctr); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func meanOf(x [][]float64, labels []int, c int) ([]float64, bool) {
	var sum []float64
	n := 0
	for i, p := range x {
		if labels[i] != c {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(p))
		}
		for j, v := range p {
			sum[j] += v
		}
		n++
	}
	if n == 0 {
		return nil, false
	}
	for j := range sum {
		sum[j] /= float64(n)
	}
	return sum, true
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(v []float64) []float64 { return append([]float64(nil), v...) }
