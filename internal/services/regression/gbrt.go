package regression

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	domsvc "FinCast/internal/domain/service"
)

// GBRTParams configures gradient-boosted regression trees with squared loss.
type GBRTParams struct {
	Iterations     int     `json:"iterations"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
}

// DefaultGBRTParams mirrors the usual histogram boosting defaults:
// 100 rounds, shrinkage 0.1, 20 samples per leaf.
func DefaultGBRTParams() GBRTParams {
	return GBRTParams{Iterations: 100, LearningRate: 0.1, MaxDepth: 3, MinSamplesLeaf: 20}
}

func (p GBRTParams) normalized() GBRTParams {
	d := DefaultGBRTParams()
	if p.Iterations <= 0 {
		p.Iterations = d.Iterations
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		p.LearningRate = d.LearningRate
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = 1
	}
	return p
}

type treeNode struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"v,omitempty"`
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t tree) eval(row []float64) float64 {
	n := t.Nodes[0]
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}

// GBRTModel is a fitted boosted tree ensemble.
type GBRTModel struct {
	Params GBRTParams `json:"params"`
	Width  int        `json:"width"`
	Base   float64    `json:"base"`
	Trees  []tree     `json:"trees"`
}

func (m *GBRTModel) Algorithm() string { return AlgorithmGBRT }

func (m *GBRTModel) Predict(x [][]float64) ([]float64, error) {
	if err := checkRows(x, m.Width); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		v := m.Base
		for _, t := range m.Trees {
			v += m.Params.LearningRate * t.eval(row)
		}
		out[i] = v
	}
	return out, nil
}

// validate rejects decoded ensembles whose node links would panic at eval time.
func (m *GBRTModel) validate() error {
	if m.Width <= 0 {
		return fmt.Errorf("gbrt: width %d", m.Width)
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("gbrt: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= m.Width {
				return fmt.Errorf("gbrt: tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("gbrt: tree %d node %d: bad child link", ti, ni)
			}
		}
	}
	return nil
}

// GBRTTrainer fits GBRTModel instances. Fitting is deterministic.
type GBRTTrainer struct {
	params GBRTParams
}

func NewGBRTTrainer(p GBRTParams) *GBRTTrainer { return &GBRTTrainer{params: p.normalized()} }

func (t *GBRTTrainer) Algorithm() string { return AlgorithmGBRT }

func (t *GBRTTrainer) Fit(x [][]float64, y []float64) (domsvc.Model, error) {
	width, err := checkTrainingSet(x, y)
	if err != nil {
		return nil, err
	}
	n := len(y)
	m := &GBRTModel{Params: t.params, Width: width, Base: stat.Mean(y, nil)}

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = m.Base
	}
	resid := make([]float64, n)
	idx := make([]int, n)
	for it := 0; it < t.params.Iterations; it++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
			idx[i] = i
		}
		b := &treeBuilder{x: x, r: resid, width: width, params: t.params}
		b.build(idx, 0)
		tr := tree{Nodes: b.nodes}
		for i := range pred {
			pred[i] += t.params.LearningRate * tr.eval(x[i])
		}
		m.Trees = append(m.Trees, tr)
	}
	return m, nil
}

type treeBuilder struct {
	x      [][]float64
	r      []float64
	width  int
	params GBRTParams
	nodes  []treeNode
}

// build grows a node over idx and returns its position in b.nodes.
// Children always come after their parent.
func (b *treeBuilder) build(idx []int, depth int) int {
	sum := 0.0
	for _, i := range idx {
		sum += b.r[i]
	}
	pos := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Leaf: true, Value: sum / float64(len(idx))})

	if depth >= b.params.MaxDepth || len(idx) < 2*b.params.MinSamplesLeaf {
		return pos
	}
	f, thr, ok := b.bestSplit(idx, sum)
	if !ok {
		return pos
	}
	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][f] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[pos] = treeNode{Feature: f, Threshold: thr, Left: l, Right: r}
	return pos
}

// bestSplit scans every feature for the threshold with the largest drop in
// squared error, honoring the minimum leaf size.
func (b *treeBuilder) bestSplit(idx []int, sum float64) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.params.MinSamplesLeaf
	parent := sum * sum / float64(n)
	bestGain := 1e-12
	bestFeature, bestThr, found := 0, 0.0, false

	sorted := make([]int, n)
	for f := 0; f < b.width; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			leftSum += b.r[sorted[k]]
			nl := k + 1
			nr := n - nl
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			v, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if v == next {
				continue
			}
			rightSum := sum - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - parent
			if gain > bestGain {
				bestGain, bestFeature, bestThr, found = gain, f, v+(next-v)/2, true
			}
		}
	}
	return bestFeature, bestThr, found
}
