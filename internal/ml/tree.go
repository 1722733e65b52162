package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"irrigation-predictor/internal/features"
)

// TreeNode is one node of a serialized decision tree. Internal nodes send a
// vector left when v[FeatureIdx] <= Threshold; leaves carry an index into the
// artifact's class list.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// treeArtifact is the on-disk layout of a decision tree model
type treeArtifact struct {
	Version   string     `json:"version,omitempty"`
	TrainedAt string     `json:"trained_at,omitempty"`
	Features  []string   `json:"features,omitempty"`
	Classes   []Label    `json:"classes"`
	Nodes     []TreeNode `json:"nodes"`
}

// DecisionTree evaluates a validated tree in process. It is immutable and
// safe for concurrent use.
type DecisionTree struct {
	nodes   []TreeNode
	classes []Label
}

// NewDecisionTree validates nodes and classes and returns the tree rooted at
// nodes[0].
func NewDecisionTree(nodes []TreeNode, classes []Label) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("decision tree has no nodes")
	}
	if len(classes) == 0 {
		return nil, errors.New("decision tree has no classes")
	}
	for i, c := range classes {
		if c.IsZero() {
			return nil, fmt.Errorf("class %d is empty", i)
		}
	}

	for i, n := range nodes {
		if n.IsLeaf {
			if n.ClassLabel < 0 || n.ClassLabel >= len(classes) {
				return nil, fmt.Errorf("node %d: class index %d out of range [0,%d)", i, n.ClassLabel, len(classes))
			}
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= features.NumFeatures {
			return nil, fmt.Errorf("node %d: feature index %d out of range [0,%d)", i, n.FeatureIdx, features.NumFeatures)
		}
		if math.IsNaN(n.Threshold) || math.IsInf(n.Threshold, 0) {
			return nil, fmt.Errorf("node %d: threshold is not finite", i)
		}
		for _, child := range []int{n.LeftChild, n.RightChild} {
			if child < 0 || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: child index %d out of range [0,%d)", i, child, len(nodes))
			}
		}
	}

	if err := checkAcyclic(nodes); err != nil {
		return nil, err
	}

	return &DecisionTree{
		nodes:   slices.Clone(nodes),
		classes: slices.Clone(classes),
	}, nil
}

// checkAcyclic walks every node reachable from the root and fails on a back
// edge.
func checkAcyclic(nodes []TreeNode) error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make([]int, len(nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case inProgress:
			return fmt.Errorf("decision tree contains a cycle through node %d", i)
		case done:
			return nil
		}
		state[i] = inProgress
		if n := nodes[i]; !n.IsLeaf {
			if err := visit(n.LeftChild); err != nil {
				return err
			}
			if err := visit(n.RightChild); err != nil {
				return err
			}
		}
		state[i] = done
		return nil
	}
	return visit(0)
}

// LoadDecisionTree reads a JSON tree artifact. An artifact that lists feature
// names must list them in exactly the model order.
func LoadDecisionTree(path string) (*DecisionTree, ModelMetadata, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, ModelMetadata{}, fmt.Errorf("read model artifact: %w", err)
	}

	var artifact treeArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, ModelMetadata{}, fmt.Errorf("parse model artifact: %w", err)
	}

	if len(artifact.Features) > 0 && !slices.Equal(artifact.Features, features.Names()) {
		return nil, ModelMetadata{}, fmt.Errorf("model features %v do not match expected order %v",
			artifact.Features, features.Names())
	}

	tree, err := NewDecisionTree(artifact.Nodes, artifact.Classes)
	if err != nil {
		return nil, ModelMetadata{}, fmt.Errorf("invalid model artifact: %w", err)
	}

	meta := ModelMetadata{
		Version:   artifact.Version,
		TrainedAt: artifact.TrainedAt,
		Format:    FormatDecisionTree,
		Path:      path,
		Features:  features.Names(),
		Classes:   slices.Clone(artifact.Classes),
	}
	return tree, meta, nil
}

// Save writes the tree as a JSON artifact.
func (dt *DecisionTree) Save(path, version, trainedAt string) error {
	artifact := treeArtifact{
		Version:   version,
		TrainedAt: trainedAt,
		Features:  features.Names(),
		Classes:   dt.classes,
		Nodes:     dt.nodes,
	}
	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// Classes returns the labels the tree can produce.
func (dt *DecisionTree) Classes() []Label {
	return slices.Clone(dt.classes)
}

// Predict walks the tree from the root to a leaf.
func (dt *DecisionTree) Predict(v features.FeatureVector) (Label, error) {
	idx := 0
	// A validated tree reaches a leaf in at most len(nodes) steps.
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return dt.classes[node.ClassLabel], nil
		}
		x := v[node.FeatureIdx]
		if math.IsNaN(x) {
			return Label{}, fmt.Errorf("feature %d is NaN", node.FeatureIdx)
		}
		if x <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return Label{}, errors.New("decision tree walk did not terminate")
}
