package ml

import (
	"math"
	"math/rand"
	"sort"

	"vehicle-insurance-mlops/internal/core/domain"
)

// Node is one node of a flattened binary decision tree. Leaves carry the
// positive-class probability of the training samples that reached them.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Prob      float64 `json:"p"`
	Leaf      bool    `json:"leaf,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// PredictProba walks the tree to a leaf.
func (t *Tree) PredictProba(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Prob
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth is the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	params      domain.ForestParams
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
}

// buildTree grows a CART tree on the rows named by idx.
func buildTree(x [][]float64, y []int, idx []int, params domain.ForestParams, rng *rand.Rand) Tree {
	b := &treeBuilder{
		x:           x,
		y:           y,
		params:      params,
		maxFeatures: resolveMaxFeatures(params.MaxFeatures, len(x[0])),
		rng:         rng,
	}
	b.grow(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	n := len(idx)
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Prob: float64(pos) / float64(n)})

	minSplit := max(b.params.MinSamplesSplit, 2)
	if n < minSplit || pos == 0 || pos == n {
		return id
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      l,
		Right:     r,
		Prob:      float64(pos) / float64(n),
	}
	return id
}

// bestSplit scans features in random order until maxFeatures non-constant
// features have been evaluated, and returns the lowest weighted impurity split.
func (b *treeBuilder) bestSplit(idx []int, pos int) (int, float64, bool) {
	n := len(idx)
	minLeaf := max(b.params.MinSamplesLeaf, 1)
	impurity := impurityFunc(b.params.Criterion)

	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)

	sorted := make([]int, n)
	visited := 0
	for _, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.maxFeatures {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })
		if b.x[sorted[0]][f] == b.x[sorted[n-1]][f] {
			continue
		}
		visited++

		leftPos := 0
		for k := 0; k < n-1; k++ {
			leftPos += b.y[sorted[k]]
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			leftN := k + 1
			rightN := n - leftN
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}
			score := (float64(leftN)*impurity(leftPos, leftN) + float64(rightN)*impurity(pos-leftPos, rightN)) / float64(n)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func impurityFunc(criterion string) func(pos, n int) float64 {
	if criterion == "entropy" {
		return func(pos, n int) float64 {
			p := float64(pos) / float64(n)
			if p == 0 || p == 1 {
				return 0
			}
			return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
		}
	}
	return func(pos, n int) float64 {
		p := float64(pos) / float64(n)
		return 2 * p * (1 - p)
	}
}

func resolveMaxFeatures(mode string, nFeatures int) int {
	var k int
	switch mode {
	case "sqrt":
		k = int(math.Sqrt(float64(nFeatures)))
	case "log2":
		k = int(math.Log2(float64(nFeatures)))
	default:
		k = nFeatures
	}
	return min(max(k, 1), nFeatures)
}
