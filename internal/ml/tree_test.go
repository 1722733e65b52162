package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"irrigation-predictor/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNodes() []TreeNode {
	return []TreeNode{
		{FeatureIdx: 0, Threshold: 30, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, ClassLabel: 0},
		{FeatureIdx: 6, Threshold: 40, LeftChild: 3, RightChild: 4},
		{IsLeaf: true, ClassLabel: 0},
		{IsLeaf: true, ClassLabel: 1},
	}
}

func sampleClasses() []Label {
	return []Label{StringLabel("ON"), StringLabel("OFF")}
}

func writeArtifact(t *testing.T, artifact any) string {
	t.Helper()
	payload, err := json.Marshal(artifact)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, payload, 0o644))
	return path
}

func TestDecisionTree_Predict(t *testing.T) {
	tree, err := NewDecisionTree(sampleNodes(), sampleClasses())
	require.NoError(t, err)

	tests := []struct {
		name string
		v    features.FeatureVector
		want string
	}{
		{"dry soil", features.FeatureVector{10, 25, 60, 12, 23, 10, 70, 15, 101}, "ON"},
		{"threshold goes left", features.FeatureVector{30, 25, 60, 12, 23, 10, 70, 15, 101}, "ON"},
		{"wet soil dry air", features.FeatureVector{50, 25, 60, 12, 23, 10, 20, 15, 101}, "ON"},
		{"wet soil humid air", features.FeatureVector{50, 25, 60, 12, 23, 10, 70, 15, 101}, "OFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := tree.Predict(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, label.String())
		})
	}
}

func TestNewDecisionTree_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []TreeNode
		classes []Label
	}{
		{"no nodes", nil, sampleClasses()},
		{"no classes", sampleNodes(), nil},
		{"empty class", sampleNodes(), []Label{StringLabel("ON"), {}}},
		{"leaf class out of range", []TreeNode{{IsLeaf: true, ClassLabel: 5}}, sampleClasses()},
		{"feature out of range", []TreeNode{
			{FeatureIdx: 9, Threshold: 1, LeftChild: 1, RightChild: 1},
			{IsLeaf: true},
		}, sampleClasses()},
		{"negative feature", []TreeNode{
			{FeatureIdx: -1, Threshold: 1, LeftChild: 1, RightChild: 1},
			{IsLeaf: true},
		}, sampleClasses()},
		{"child out of range", []TreeNode{
			{FeatureIdx: 0, Threshold: 1, LeftChild: 1, RightChild: 7},
			{IsLeaf: true},
		}, sampleClasses()},
		{"self loop", []TreeNode{
			{FeatureIdx: 0, Threshold: 1, LeftChild: 0, RightChild: 1},
			{IsLeaf: true},
		}, sampleClasses()},
		{"cycle", []TreeNode{
			{FeatureIdx: 0, Threshold: 1, LeftChild: 1, RightChild: 2},
			{IsLeaf: true},
			{FeatureIdx: 1, Threshold: 1, LeftChild: 1, RightChild: 0},
		}, sampleClasses()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecisionTree(tt.nodes, tt.classes)
			assert.Error(t, err)
		})
	}
}

func TestLoadDecisionTree(t *testing.T) {
	path := writeArtifact(t, map[string]any{
		"version":    "2024.06",
		"trained_at": "2024-06-01T10:00:00Z",
		"features":   features.Names(),
		"classes":    []any{"ON", "OFF"},
		"nodes":      sampleNodes(),
	})

	tree, meta, err := LoadDecisionTree(path)
	require.NoError(t, err)
	assert.Equal(t, "2024.06", meta.Version)
	assert.Equal(t, FormatDecisionTree, meta.Format)
	assert.Len(t, meta.Classes, 2)
	assert.Len(t, tree.Classes(), 2)

	label, err := tree.Predict(features.FeatureVector{50, 25, 60, 12, 23, 10, 70, 15, 101})
	require.NoError(t, err)
	assert.Equal(t, "OFF", label.String())
}

func TestLoadDecisionTree_NumericClasses(t *testing.T) {
	path := writeArtifact(t, map[string]any{
		"classes": []any{1, 0},
		"nodes":   sampleNodes(),
	})

	tree, _, err := LoadDecisionTree(path)
	require.NoError(t, err)

	label, err := tree.Predict(features.FeatureVector{10, 25, 60, 12, 23, 10, 70, 15, 101})
	require.NoError(t, err)

	out, err := json.Marshal(label)
	require.NoError(t, err)
	assert.Equal(t, "1", string(out))
}

func TestLoadDecisionTree_Failures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadDecisionTree(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tree.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, _, err := LoadDecisionTree(path)
		assert.Error(t, err)
	})

	t.Run("feature order mismatch", func(t *testing.T) {
		names := features.Names()
		names[0], names[1] = names[1], names[0]
		path := writeArtifact(t, map[string]any{
			"features": names,
			"classes":  []any{"ON", "OFF"},
			"nodes":    sampleNodes(),
		})
		_, _, err := LoadDecisionTree(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "do not match")
	})

	t.Run("invalid tree", func(t *testing.T) {
		path := writeArtifact(t, map[string]any{
			"classes": []any{"ON"},
			"nodes":   []TreeNode{{IsLeaf: true, ClassLabel: 3}},
		})
		_, _, err := LoadDecisionTree(path)
		assert.Error(t, err)
	})
}

func TestDecisionTree_SaveRoundTrip(t *testing.T) {
	tree, err := NewDecisionTree(sampleNodes(), sampleClasses())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, tree.Save(path, "v1", "2024-06-01"))

	loaded, meta, err := LoadDecisionTree(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", meta.Version)

	v := features.FeatureVector{50, 25, 60, 12, 23, 10, 70, 15, 101}
	want, err := tree.Predict(v)
	require.NoError(t, err)
	got, err := loaded.Predict(v)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}
