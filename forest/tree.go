package forest

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one node of a flattened decision tree. Leaves carry the weighted
// fraction of positive samples that reached them.
type Node struct {
	Feature   int
	Threshold float64
	Left      int32
	Right     int32
	Leaf      bool
	Proba     float64
}

// Tree is a binary classification tree stored as a node slice; node 0 is
// the root.
type Tree struct {
	Nodes []Node
}

// proba walks x down the tree and returns the leaf's positive probability.
func (t *Tree) proba(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Proba
		}
		if x[n.Feature] <= n.Threshold {
			i = int(n.Left)
		} else {
			i = int(n.Right)
		}
	}
}

// depth returns the length of the longest root-to-leaf path.
func (t *Tree) depth() int {
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return d
		}
		l := walk(int(n.Left), d+1)
		r := walk(int(n.Right), d+1)
		if l > r {
			return l
		}
		return r
	}
	return walk(0, 0)
}

// treeBuilder grows one CART tree with weighted Gini impurity.
type treeBuilder struct {
	x           [][]float64
	y           []int
	weights     []float64
	config      Config
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) build(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(idx, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

func (b *treeBuilder) grow(idx []int, depth int) int32 {
	w0, w1 := b.classWeights(idx)
	id := int32(len(b.nodes))
	b.nodes = append(b.nodes, Node{Leaf: true, Proba: positiveRate(w0, w1)})

	if depth >= b.config.MaxDepth ||
		len(idx) < b.config.MinSamplesSplit ||
		len(idx) < 2*b.config.MinSamplesLeaf ||
		w0 == 0 || w1 == 0 {
		return id
	}

	best, ok := b.bestSplit(idx, gini(w0, w1)*(w0+w1))
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{Feature: best.feature, Threshold: best.threshold, Left: l, Right: r}
	return id
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted child impurity. Like CART in common libraries it keeps
// drawing features past maxFeatures until at least one valid split exists.
func (b *treeBuilder) bestSplit(idx []int, parentImpurity float64) (split, bool) {
	nFeatures := len(b.x[0])
	best := split{impurity: math.Inf(1)}
	found := false

	sorted := make([]int, len(idx))
	for visited, f := range b.rng.Perm(nFeatures) {
		if visited >= b.maxFeatures && found {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		totalW0, totalW1 := b.classWeights(sorted)
		var l0, l1 float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			if b.y[i] == 1 {
				l1 += b.weights[i]
			} else {
				l0 += b.weights[i]
			}

			leftN, rightN := k+1, len(sorted)-k-1
			if leftN < b.config.MinSamplesLeaf {
				continue
			}
			if rightN < b.config.MinSamplesLeaf {
				break
			}
			v, next := b.x[i][f], b.x[sorted[k+1]][f]
			if v == next {
				continue
			}

			r0, r1 := totalW0-l0, totalW1-l1
			imp := gini(l0, l1)*(l0+l1) + gini(r0, r1)*(r0+r1)
			if imp < best.impurity {
				best = split{feature: f, threshold: v + (next-v)/2, impurity: imp}
				found = true
			}
		}
	}

	if !found || best.impurity >= parentImpurity-1e-12 {
		return split{}, false
	}
	return best, true
}

func (b *treeBuilder) classWeights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if b.y[i] == 1 {
			w1 += b.weights[i]
		} else {
			w0 += b.weights[i]
		}
	}
	return w0, w1
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total == 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}

func positiveRate(w0, w1 float64) float64 {
	if w0+w1 == 0 {
		return 0
	}
	return w1 / (w0 + w1)
}
