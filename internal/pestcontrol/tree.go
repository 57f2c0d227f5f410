package pestcontrol

import (
	"slices"

	"github.com/farmwatch/farmwatch/internal/preprocess"
)

// Tree growth limits.
const (
	maxDepth        = 10
	minSamplesSplit = 5
	minImpurityGain = 1e-12
)

// Feature order used by the tree.
const (
	featTemperature = iota
	featHumidity
	featSeverity
	featSeason
	numFeatures
)

var seasonCodes = map[string]float64{
	preprocess.SeasonSpring: 1,
	preprocess.SeasonSummer: 2,
	preprocess.SeasonAutumn: 3,
	preprocess.SeasonWinter: 4,
}

func seasonCode(season string) float64 {
	if c, ok := seasonCodes[season]; ok {
		return c
	}
	return seasonCodes[preprocess.SeasonSpring]
}

type sample struct {
	x     [numFeatures]float64
	label string
}

// node is a CART node. Leaves have a label and no children.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	label     string
}

func (n *node) leaf() bool { return n.left == nil }

// DecisionTree classifies the treatment type from temperature, humidity,
// severity and season.
type DecisionTree struct {
	root *node
}

// Trained reports whether the tree has been fitted.
func (t *DecisionTree) Trained() bool {
	return t != nil && t.root != nil
}

// Predict returns the treatment type for the given conditions, or
// biological if the tree is not trained.
func (t *DecisionTree) Predict(temperature, humidity float64, severity int, season string) string {
	if !t.Trained() {
		return Biological
	}
	x := [numFeatures]float64{temperature, humidity, float64(severity), seasonCode(season)}
	n := t.root
	for !n.leaf() {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.label
}

// Depth returns the depth of the fitted tree.
func (t *DecisionTree) Depth() int {
	if !t.Trained() {
		return 0
	}
	var depth func(n *node) int
	depth = func(n *node) int {
		if n.leaf() {
			return 0
		}
		return 1 + max(depth(n.left), depth(n.right))
	}
	return depth(t.root)
}

// TrainDecisionTree fits a Gini CART tree on the synthetic training grid.
func TrainDecisionTree() *DecisionTree {
	return &DecisionTree{root: grow(trainingSet(), 0)}
}

// ruleLabel is the expert rule the synthetic grid is labelled with.
func ruleLabel(temperature, humidity float64, severity int) string {
	switch {
	case severity <= 2:
		if temperature >= 15 && humidity >= 40 {
			return Biological
		}
		return Physical
	case severity <= 4:
		if temperature >= 10 && humidity <= 80 {
			return Biological
		}
		return Physical
	default:
		return Chemical
	}
}

func trainingSet() []sample {
	seasons := []string{preprocess.SeasonSpring, preprocess.SeasonSummer, preprocess.SeasonAutumn, preprocess.SeasonWinter}
	var out []sample
	for temp := 5; temp <= 35; temp += 5 {
		for hum := 20; hum <= 90; hum += 10 {
			for sev := 1; sev <= 5; sev++ {
				for _, season := range seasons {
					out = append(out, sample{
						x:     [numFeatures]float64{float64(temp), float64(hum), float64(sev), seasonCode(season)},
						label: ruleLabel(float64(temp), float64(hum), sev),
					})
				}
			}
		}
	}
	return out
}

func classCounts(samples []sample) map[string]int {
	counts := make(map[string]int)
	for _, s := range samples {
		counts[s.label]++
	}
	return counts
}

func gini(counts map[string]int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

// majority returns the most frequent label, ties broken by name.
func majority(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	best := ""
	for _, l := range labels {
		if best == "" || counts[l] > counts[best] {
			best = l
		}
	}
	return best
}

func grow(samples []sample, depth int) *node {
	counts := classCounts(samples)
	if len(counts) <= 1 || depth >= maxDepth || len(samples) < minSamplesSplit {
		return &node{label: majority(counts)}
	}

	feature, threshold, ok := bestSplit(samples, counts)
	if !ok {
		return &node{label: majority(counts)}
	}

	var left, right []sample
	for _, s := range samples {
		if s.x[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return &node{
		feature:   feature,
		threshold: threshold,
		left:      grow(left, depth+1),
		right:     grow(right, depth+1),
	}
}

// bestSplit scans every feature for the midpoint threshold with the largest
// Gini decrease.
func bestSplit(samples []sample, counts map[string]int) (feature int, threshold float64, ok bool) {
	n := len(samples)
	parent := gini(counts, n)
	bestGain := minImpurityGain

	sorted := make([]sample, n)
	for f := range numFeatures {
		copy(sorted, samples)
		slices.SortStableFunc(sorted, func(a, b sample) int {
			switch {
			case a.x[f] < b.x[f]:
				return -1
			case a.x[f] > b.x[f]:
				return 1
			}
			return 0
		})

		left := make(map[string]int)
		right := make(map[string]int, len(counts))
		for l, c := range counts {
			right[l] = c
		}
		for i := 0; i < n-1; i++ {
			l := sorted[i].label
			left[l]++
			right[l]--
			if sorted[i].x[f] == sorted[i+1].x[f] {
				continue
			}
			nl, nr := i+1, n-i-1
			weighted := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if gain := parent - weighted; gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (sorted[i].x[f] + sorted[i+1].x[f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}
