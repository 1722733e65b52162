package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"irrigation-predictor/internal/features"
	"irrigation-predictor/internal/reading"

	"github.com/rs/zerolog/log"
)

// ScriptClassifier evaluates a pickled scikit-learn estimator by running a
// Python interpreter per prediction. Each call is an independent process, so
// it is safe for concurrent use.
type ScriptClassifier struct {
	pythonPath string
	scriptPath string
	modelPath  string
	timeout    time.Duration
}

type scriptRequest struct {
	Features []float64 `json:"features"`
}

type scriptResponse struct {
	Prediction json.RawMessage `json:"prediction"`
	Error      string          `json:"error,omitempty"`
}

// NewScriptClassifier locates an interpreter (pythonPath when set), writes the
// inference script to a temporary file and runs one health-check prediction.
func NewScriptClassifier(modelPath, pythonPath string, timeout time.Duration) (*ScriptClassifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", modelPath, err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	if pythonPath == "" {
		found, err := findPython()
		if err != nil {
			return nil, err
		}
		pythonPath = found
	}

	scriptPath, err := writeInferenceScript()
	if err != nil {
		return nil, fmt.Errorf("failed to create inference script: %w", err)
	}

	c := &ScriptClassifier{
		pythonPath: pythonPath,
		scriptPath: scriptPath,
		modelPath:  modelPath,
		timeout:    timeout,
	}

	if _, err := c.Predict(healthCheckVector()); err != nil {
		c.Close()
		return nil, fmt.Errorf("model health check failed: %w", err)
	}

	log.Info().
		Str("python_path", pythonPath).
		Str("model_path", modelPath).
		Msg("Pickled model passed health check")
	return c, nil
}

// Predict sends v to the inference script and parses the returned label.
func (c *ScriptClassifier) Predict(v features.FeatureVector) (Label, error) {
	reqJSON, err := json.Marshal(scriptRequest{Features: v.Slice()})
	if err != nil {
		return Label{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.pythonPath, c.scriptPath, c.modelPath)
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Label{}, fmt.Errorf("prediction timeout after %v", c.timeout)
	}

	var resp scriptResponse
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		if runErr != nil {
			return Label{}, fmt.Errorf("python inference failed: %w, stderr: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		return Label{}, fmt.Errorf("failed to parse response: %w, stdout: %s", err, stdout.String())
	}
	if resp.Error != "" {
		return Label{}, fmt.Errorf("python inference error: %s", resp.Error)
	}
	if runErr != nil {
		return Label{}, fmt.Errorf("python inference failed: %w, stderr: %s", runErr, strings.TrimSpace(stderr.String()))
	}

	label, err := ParseLabel(resp.Prediction)
	if err != nil {
		return Label{}, fmt.Errorf("invalid prediction in response: %w", err)
	}
	return label, nil
}

// Close removes the temporary inference script.
func (c *ScriptClassifier) Close() error {
	if c.scriptPath == "" {
		return nil
	}
	err := os.Remove(c.scriptPath)
	c.scriptPath = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// healthCheckVector is the midpoint of every field range.
func healthCheckVector() features.FeatureVector {
	var v features.FeatureVector
	for i, f := range reading.Fields {
		v[i] = (f.Min + f.Max) / 2
	}
	return v
}

func findPython() (string, error) {
	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates := []string{
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				log.Info().Str("python_path", candidate).Msg("Using virtual environment Python")
				return candidate, nil
			}
		}
	}

	for _, candidate := range []string{"python3", "python"} {
		if path, err := exec.LookPath(candidate); err == nil {
			log.Info().Str("python_path", path).Msg("Using system Python")
			return path, nil
		}
	}

	return "", errors.New("no Python interpreter found; set PYTHON_PATH to load pickled models")
}

func writeInferenceScript() (string, error) {
	f, err := os.CreateTemp("", "irrigation_inference_*.py")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(inferenceScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

const inferenceScript = `#!/usr/bin/env python3
import json
import pickle
import sys


def load_model(path):
    if path.endswith(".joblib"):
        import joblib
        return joblib.load(path)
    with open(path, "rb") as fh:
        return pickle.load(fh)


def to_jsonable(value):
    if hasattr(value, "item"):
        return value.item()
    return value


def main():
    if len(sys.argv) != 2:
        print(json.dumps({"error": "usage: inference.py <model_path>"}))
        sys.exit(1)
    try:
        request = json.load(sys.stdin)
        model = load_model(sys.argv[1])
        prediction = model.predict([request["features"]])[0]
        print(json.dumps({"prediction": to_jsonable(prediction)}))
    except Exception as exc:
        print(json.dumps({"error": str(exc)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`
