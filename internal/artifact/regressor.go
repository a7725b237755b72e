// regressor.go gradient boosted tree regressor loaded from a JSON dump
package artifact

import (
	"encoding/json"
	"fmt"
	"math"
)

// RegressorFormat is the dump format this loader understands. The trainer
// stamps it into the artifact so a format change fails loudly at load time
// instead of producing silently wrong predictions.
const RegressorFormat = "gbtree-dump/v1"

// Node is one decision node of a boosted tree. Split nodes compare one
// feature against a threshold, leaf nodes carry the additive score.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      float64 `json:"leaf"`
	IsLeaf    bool    `json:"isLeaf"`
}

// Tree is one member of the boosted ensemble. Nodes are stored in
// evaluation order, children always follow their parent.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Regressor is a boosted tree ensemble. The prediction is the base score
// plus the leaf score each tree routes the input to.
type Regressor struct {
	Format    string  `json:"format"`
	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
}

// ParseRegressor decodes and validates a regressor dump. featureCount is
// the length of the metadata feature list, split nodes referencing
// features outside it are rejected here so Predict never has to bounds
// check.
func ParseRegressor(data []byte, featureCount int) (*Regressor, error) {
	var r Regressor
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid regressor JSON: %w", err)
	}

	if r.Format != RegressorFormat {
		return nil, fmt.Errorf("unsupported regressor format %q, want %q", r.Format, RegressorFormat)
	}
	if len(r.Trees) == 0 {
		return nil, fmt.Errorf("regressor has no trees")
	}
	if math.IsNaN(r.BaseScore) || math.IsInf(r.BaseScore, 0) {
		return nil, fmt.Errorf("regressor base_score is not finite")
	}

	for ti := range r.Trees {
		nodes := r.Trees[ti].Nodes
		if len(nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni := range nodes {
			n := &nodes[ni]
			if n.IsLeaf {
				if math.IsNaN(n.Leaf) || math.IsInf(n.Leaf, 0) {
					return nil, fmt.Errorf("tree %d node %d leaf score is not finite", ti, ni)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= featureCount {
				return nil, fmt.Errorf("tree %d node %d references feature %d outside [0,%d)", ti, ni, n.Feature, featureCount)
			}
			if math.IsNaN(n.Threshold) || math.IsInf(n.Threshold, 0) {
				return nil, fmt.Errorf("tree %d node %d threshold is not finite", ti, ni)
			}
			// Children must come after their parent. This orders every tree
			// root-to-leaf and makes traversal termination a load-time
			// guarantee rather than a runtime concern.
			if n.Left <= ni || n.Left >= len(nodes) {
				return nil, fmt.Errorf("tree %d node %d left child %d out of order", ti, ni, n.Left)
			}
			if n.Right <= ni || n.Right >= len(nodes) {
				return nil, fmt.Errorf("tree %d node %d right child %d out of order", ti, ni, n.Right)
			}
		}
	}

	return &r, nil
}

// Predict evaluates the ensemble for one feature vector. Missing values
// are represented as NaN and follow the left branch, the same default
// direction the trainer used.
func (r *Regressor) Predict(features []float64) float64 {
	sum := r.BaseScore
	for ti := range r.Trees {
		sum += r.Trees[ti].evaluate(features)
	}
	return sum
}

func (t *Tree) evaluate(features []float64) float64 {
	ni := 0
	for {
		n := &t.Nodes[ni]
		if n.IsLeaf {
			return n.Leaf
		}
		v := features[n.Feature]
		if math.IsNaN(v) || v < n.Threshold {
			ni = n.Left
		} else {
			ni = n.Right
		}
	}
}
