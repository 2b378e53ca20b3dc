package ml

import (
	"math/rand"
	"sort"
)

// SMOTE balances a binary training set by synthesising minority rows on the
// segment between a minority row and one of its k nearest minority
// neighbours. Input rows are returned first, unchanged, followed by the
// synthetic rows. The output depends only on the inputs and seed.
func SMOTE(x [][]float64, y []int, k int, seed int64) ([][]float64, []int) {
	outX := make([][]float64, len(x))
	copy(outX, x)
	outY := make([]int, len(y))
	copy(outY, y)

	var pos, neg []int
	for i, label := range y {
		if label == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}
	minority, minorityLabel, majority := pos, 1, len(neg)
	if len(neg) < len(pos) {
		minority, minorityLabel, majority = neg, 0, len(pos)
	}
	need := majority - len(minority)
	if need <= 0 || len(minority) < 2 {
		return outX, outY
	}
	k = min(max(k, 1), len(minority)-1)

	rng := rand.New(rand.NewSource(seed))
	neighbours := make(map[int][]int)
	for s := 0; s < need; s++ {
		i := minority[rng.Intn(len(minority))]
		nb, ok := neighbours[i]
		if !ok {
			nb = nearest(x, i, minority, k)
			neighbours[i] = nb
		}
		j := nb[rng.Intn(len(nb))]
		gap := rng.Float64()

		row := make([]float64, len(x[i]))
		for f := range row {
			row[f] = x[i][f] + gap*(x[j][f]-x[i][f])
		}
		outX = append(outX, row)
		outY = append(outY, minorityLabel)
	}
	return outX, outY
}

func nearest(x [][]float64, i int, candidates []int, k int) []int {
	type dist struct {
		idx int
		d   float64
	}
	ds := make([]dist, 0, len(candidates)-1)
	for _, j := range candidates {
		if j == i {
			continue
		}
		var d float64
		for f := range x[i] {
			diff := x[i][f] - x[j][f]
			d += diff * diff
		}
		ds = append(ds, dist{idx: j, d: d})
	}
	sort.SliceStable(ds, func(a, b int) bool { return ds[a].d < ds[b].d })
	out := make([]int, k)
	for n := 0; n < k; n++ {
		out[n] = ds[n].idx
	}
	return out
}
