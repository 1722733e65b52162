package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"irrigation-predictor/internal/features"
)

// Artifact formats
const (
	FormatDecisionTree = "decision_tree_json"
	FormatPickle       = "python_pickle"
)

// ModelMetadata contains information about the loaded model
type ModelMetadata struct {
	Version    string    `json:"version,omitempty"`
	TrainedAt  string    `json:"trained_at,omitempty"`
	Format     string    `json:"format,omitempty"`
	Path       string    `json:"path,omitempty"`
	Features   []string  `json:"features,omitempty"`
	Classes    []Label   `json:"classes,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// LoadClassifier opens the artifact at path with the loader matching its
// extension.
func LoadClassifier(path string, opts ...Option) (Classifier, ModelMetadata, error) {
	return loadClassifier(path, buildOptions(opts))
}

func loadClassifier(path string, o options) (Classifier, ModelMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ModelMetadata{}, fmt.Errorf("model artifact %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, ModelMetadata{}, fmt.Errorf("model artifact %s is a directory", path)
	}

	meta := ModelMetadata{
		Path:       path,
		Features:   features.Names(),
		ModifiedAt: info.ModTime(),
	}

	var c Classifier
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		tree, treeMeta, err := LoadDecisionTree(path)
		if err != nil {
			return nil, ModelMetadata{}, err
		}
		meta.Format = FormatDecisionTree
		meta.Version = treeMeta.Version
		meta.TrainedAt = treeMeta.TrainedAt
		meta.Classes = treeMeta.Classes
		c = tree
	case ".pkl", ".pickle", ".joblib":
		script, err := NewScriptClassifier(path, o.pythonPath, o.inferenceTimeout)
		if err != nil {
			return nil, ModelMetadata{}, err
		}
		meta.Format = FormatPickle
		c = script
	default:
		return nil, ModelMetadata{}, fmt.Errorf("unsupported model format %q", ext)
	}

	meta.LoadedAt = time.Now()
	return c, meta, nil
}
