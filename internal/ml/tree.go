package ml

import (
	"math/rand"
	"sort"
)

// Node is one node of a fitted decision tree. Leaves have Feature -1.
// Samples with x[Feature] <= Threshold go Left.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     []float64 // class distribution of the training samples reaching the node
}

// DecisionTree is a gini-impurity classification tree over sparse rows.
type DecisionTree struct {
	Nodes []Node
}

// PredictProba returns the class distribution of the leaf x falls into.
func (t *DecisionTree) PredictProba(x SparseVector) []float64 {
	i := 0
	for t.Nodes[i].Feature >= 0 {
		n := &t.Nodes[i]
		if x.At(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

type treeBuilder struct {
	X               []SparseVector
	y               []int // class indices
	nClasses        int
	minSamplesSplit int
	maxFeatures     int
	rng             *rand.Rand

	mark []bool // scratch, indexed by feature
	vals []valueClass
}

type valueClass struct {
	v float64
	c int
}

type frame struct {
	node    int
	samples []int
}

// fitTree grows a tree on samples (indices into X, repeats allowed) until
// nodes are pure, smaller than minSamplesSplit, or have no valid split.
func fitTree(X []SparseVector, y []int, samples []int, nClasses, nFeatures, minSamplesSplit, maxFeatures int, rng *rand.Rand) *DecisionTree {
	b := &treeBuilder{
		X:               X,
		y:               y,
		nClasses:        nClasses,
		minSamplesSplit: minSamplesSplit,
		maxFeatures:     maxFeatures,
		rng:             rng,
		mark:            make([]bool, nFeatures),
		vals:            make([]valueClass, 0, len(samples)),
	}
	tree := &DecisionTree{Nodes: []Node{{Feature: -1}}}

	stack := []frame{{node: 0, samples: samples}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		counts := b.classCounts(f.samples)
		tree.Nodes[f.node].Value = normalize(counts)
		if len(f.samples) < b.minSamplesSplit || isPure(counts) {
			continue
		}

		feature, threshold, ok := b.bestSplit(f.samples, counts)
		if !ok {
			continue
		}

		var left, right []int
		for _, s := range f.samples {
			if X[s].At(feature) <= threshold {
				left = append(left, s)
			} else {
				right = append(right, s)
			}
		}

		l := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{Feature: -1}, Node{Feature: -1})
		n := &tree.Nodes[f.node]
		n.Feature = feature
		n.Threshold = threshold
		n.Left = l
		n.Right = l + 1

		stack = append(stack, frame{node: l, samples: left}, frame{node: l + 1, samples: right})
	}
	return tree
}

// bestSplit searches up to maxFeatures features that vary among samples, in
// random order, and returns the split with the lowest weighted gini impurity.
// Features that are zero for every sample cannot split the node and are
// skipped without counting toward maxFeatures.
func (b *treeBuilder) bestSplit(samples []int, parent []float64) (int, float64, bool) {
	active := b.activeFeatures(samples)
	b.rng.Shuffle(len(active), func(i, j int) { active[i], active[j] = active[j], active[i] })

	var parentSq float64
	for _, c := range parent {
		parentSq += c * c
	}

	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)

	bestFeature, bestThreshold := -1, 0.0
	bestScore := -1.0
	visited := 0
	for _, feature := range active {
		if visited >= b.maxFeatures {
			break
		}

		b.vals = b.vals[:0]
		for _, s := range samples {
			b.vals = append(b.vals, valueClass{v: b.X[s].At(feature), c: b.y[s]})
		}
		sort.Slice(b.vals, func(i, j int) bool { return b.vals[i].v < b.vals[j].v })
		if b.vals[0].v == b.vals[len(b.vals)-1].v {
			continue
		}
		visited++

		for c := range left {
			left[c] = 0
			right[c] = parent[c]
		}
		// Maximizing sum(l^2)/nl + sum(r^2)/nr minimizes weighted gini.
		sumL, sumR := 0.0, parentSq
		nL, nR := 0.0, float64(len(samples))
		for i := 0; i < len(b.vals)-1; i++ {
			c := b.vals[i].c
			sumL += 2*left[c] + 1
			left[c]++
			sumR -= 2*right[c] - 1
			right[c]--
			nL++
			nR--
			if b.vals[i].v == b.vals[i+1].v {
				continue
			}
			score := sumL/nL + sumR/nR
			if score > bestScore+1e-12 {
				bestScore = score
				bestFeature = feature
				bestThreshold = (b.vals[i].v + b.vals[i+1].v) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// activeFeatures lists the features non-zero in at least one sample.
func (b *treeBuilder) activeFeatures(samples []int) []int {
	var active []int
	for _, s := range samples {
		for k, j := range b.X[s].Indices {
			if b.X[s].Values[k] != 0 && !b.mark[j] {
				b.mark[j] = true
				active = append(active, j)
			}
		}
	}
	for _, j := range active {
		b.mark[j] = false
	}
	return active
}

func (b *treeBuilder) classCounts(samples []int) []float64 {
	counts := make([]float64, b.nClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
