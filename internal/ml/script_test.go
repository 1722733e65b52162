package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePython writes an executable shell script that stands in for the
// interpreter. It receives the inference script and model path as arguments
// and the request on stdin.
func fakePython(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script interpreter stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func pickleArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decision_tree_model.pkl")
	require.NoError(t, os.WriteFile(path, []byte("opaque"), 0o644))
	return path
}

func TestScriptClassifier_Predict(t *testing.T) {
	python := fakePython(t, `cat > /dev/null
echo '{"prediction": "ON"}'`)

	c, err := NewScriptClassifier(pickleArtifact(t), python, 5*time.Second)
	require.NoError(t, err)
	defer c.Close()

	label, err := c.Predict(exampleVector)
	require.NoError(t, err)
	assert.Equal(t, "ON", label.String())
}

func TestScriptClassifier_ReceivesFeatures(t *testing.T) {
	dir := t.TempDir()
	captured := filepath.Join(dir, "request.json")
	python := fakePython(t, `cat > `+captured+`
echo '{"prediction": 1}'`)

	c, err := NewScriptClassifier(pickleArtifact(t), python, 5*time.Second)
	require.NoError(t, err)
	defer c.Close()

	label, err := c.Predict(exampleVector)
	require.NoError(t, err)

	out, err := json.Marshal(label)
	require.NoError(t, err)
	assert.Equal(t, "1", string(out))

	payload, err := os.ReadFile(captured)
	require.NoError(t, err)
	var req scriptRequest
	require.NoError(t, json.Unmarshal(payload, &req))
	assert.Equal(t, exampleVector.Slice(), req.Features)
}

func TestScriptClassifier_HealthCheckFailure(t *testing.T) {
	python := fakePython(t, `cat > /dev/null
echo '{"error": "unsupported pickle protocol"}'
exit 1`)

	_, err := NewScriptClassifier(pickleArtifact(t), python, 5*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported pickle protocol")
}

func TestScriptClassifier_MissingArtifact(t *testing.T) {
	_, err := NewScriptClassifier(filepath.Join(t.TempDir(), "missing.pkl"), "/bin/true", time.Second)
	assert.Error(t, err)
}

func TestScriptClassifier_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"error field", `cat > /dev/null; echo '{"error": "boom"}'; exit 1`, "boom"},
		{"garbage output", `cat > /dev/null; echo 'Traceback'; exit 1`, "python inference failed"},
		{"null prediction", `cat > /dev/null; echo '{"prediction": null}'`, "invalid prediction"},
		{"bad json", `cat > /dev/null; echo 'not json'`, "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ScriptClassifier{
				pythonPath: fakePython(t, tt.body),
				scriptPath: "inference.py",
				modelPath:  "model.pkl",
				timeout:    5 * time.Second,
			}

			_, err := c.Predict(exampleVector)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestScriptClassifier_Timeout(t *testing.T) {
	c := &ScriptClassifier{
		pythonPath: fakePython(t, `exec sleep 5`),
		scriptPath: "inference.py",
		modelPath:  "model.pkl",
		timeout:    200 * time.Millisecond,
	}

	_, err := c.Predict(exampleVector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestScriptClassifier_CloseRemovesScript(t *testing.T) {
	python := fakePython(t, `cat > /dev/null; echo '{"prediction": "OFF"}'`)

	c, err := NewScriptClassifier(pickleArtifact(t), python, 5*time.Second)
	require.NoError(t, err)

	script := c.scriptPath
	_, err = os.Stat(script)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	_, err = os.Stat(script)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, c.Close())
}

func TestLoad_PickleArtifactThroughGateway(t *testing.T) {
	python := fakePython(t, `cat > /dev/null; echo '{"prediction": "ON"}'`)

	gw := Load(pickleArtifact(t), WithPythonPath(python), WithInferenceTimeout(5*time.Second))
	defer gw.Close()

	require.True(t, gw.IsReady(), "load error: %v", gw.LoadError())
	assert.Equal(t, FormatPickle, gw.Metadata().Format)

	result, err := gw.Predict(exampleVector)
	require.NoError(t, err)
	assert.Equal(t, "ON", result.Label.String())
}

func TestLoad_PickleWithBrokenInterpreterDegrades(t *testing.T) {
	python := fakePython(t, `exit 3`)

	gw := Load(pickleArtifact(t), WithPythonPath(python))

	assert.False(t, gw.IsReady())
	assert.Error(t, gw.LoadError())
}
