package preprocess

import (
	"math"
	"math/rand/v2"
)

const (
	defaultForestTrees   = 100
	defaultForestSample  = 256
	defaultContamination = 0.1
	forestSeed           = 42
)

// isolationNode is a split node or, when left is nil, a leaf holding size
// samples.
type isolationNode struct {
	split       float64
	left, right *isolationNode
	size        int
}

// isolationForest scores one-dimensional samples by average path length.
type isolationForest struct {
	trees      []*isolationNode
	sampleSize int
}

func newIsolationForest(data []float64, trees, sampleSize int, seed uint64) *isolationForest {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	if sampleSize > len(data) {
		sampleSize = len(data)
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(sampleSize), 2))))

	f := &isolationForest{sampleSize: sampleSize}
	for range trees {
		// sample without replacement
		idx := rng.Perm(len(data))[:sampleSize]
		sample := make([]float64, sampleSize)
		for i, j := range idx {
			sample[i] = data[j]
		}
		f.trees = append(f.trees, buildIsolationTree(sample, 0, maxDepth, rng))
	}
	return f
}

func buildIsolationTree(sample []float64, depth, maxDepth int, rng *rand.Rand) *isolationNode {
	if depth >= maxDepth || len(sample) <= 1 {
		return &isolationNode{size: len(sample)}
	}
	lo, hi := minMax(sample)
	if lo == hi {
		return &isolationNode{size: len(sample)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range sample {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isolationNode{
		split: split,
		left:  buildIsolationTree(left, depth+1, maxDepth, rng),
		right: buildIsolationTree(right, depth+1, maxDepth, rng),
	}
}

func (n *isolationNode) pathLength(v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + averagePathLength(n.size)
	}
	if v < n.split {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// score is in (0, 1]; higher is more anomalous.
func (f *isolationForest) score(v float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	total := 0.0
	for _, t := range f.trees {
		total += t.pathLength(v, 0)
	}
	avg := total / float64(len(f.trees))
	c := averagePathLength(f.sampleSize)
	if c == 0 {
		return 0
	}
	return math.Pow(2, -avg/c)
}

// averagePathLength is the expected path length of an unsuccessful search
// in a binary search tree of n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}
