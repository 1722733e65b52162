//go:build ignore

// Writes a small hand-built decision tree artifact so the service can be run
// without a trained model:
//
//	go run scripts/generate_sample_model.go -out models/irrigation_tree.json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"irrigation-predictor/internal/features"
	"irrigation-predictor/internal/ml"
	"irrigation-predictor/internal/reading"
)

// Feature indices in model order
const (
	soilMoisture = iota
	temperature
	soilHumidity
	hour
	airTemperature
	windSpeed
	airHumidity
	windGust
	pressure
)

func main() {
	var (
		out     = flag.String("out", "models/irrigation_tree.json", "Output artifact path")
		version = flag.String("version", "0.1.0-sample", "Model version recorded in the artifact")
	)
	flag.Parse()

	on, off := ml.StringLabel("ON"), ml.StringLabel("OFF")
	classes := []ml.Label{on, off}
	const (
		classOn  = 0
		classOff = 1
	)

	nodes := []ml.TreeNode{
		0:  {FeatureIdx: soilMoisture, Threshold: 35, LeftChild: 1, RightChild: 4},
		1:  {FeatureIdx: temperature, Threshold: 8, LeftChild: 2, RightChild: 3},
		2:  {IsLeaf: true, ClassLabel: classOff},
		3:  {IsLeaf: true, ClassLabel: classOn},
		4:  {FeatureIdx: soilMoisture, Threshold: 60, LeftChild: 5, RightChild: 10},
		5:  {FeatureIdx: airHumidity, Threshold: 45, LeftChild: 6, RightChild: 9},
		6:  {FeatureIdx: windSpeed, Threshold: 40, LeftChild: 7, RightChild: 8},
		7:  {IsLeaf: true, ClassLabel: classOn},
		8:  {IsLeaf: true, ClassLabel: classOff},
		9:  {IsLeaf: true, ClassLabel: classOff},
		10: {IsLeaf: true, ClassLabel: classOff},
	}

	tree, err := ml.NewDecisionTree(nodes, classes)
	if err != nil {
		log.Fatalf("invalid tree: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("create output directory: %v", err)
	}
	if err := tree.Save(*out, *version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Fatalf("save artifact: %v", err)
	}

	// Sanity check with the documented example reading
	example := features.Assemble(reading.Reading{
		SoilMoisture: 50, Temperature: 25, SoilHumidity: 60, Time: 12,
		AirTemperature: 23, WindSpeed: 10, AirHumidity: 70, WindGust: 15, Pressure: 101,
	})
	label, err := tree.Predict(example)
	if err != nil {
		log.Fatalf("predict example: %v", err)
	}

	fmt.Printf("Wrote %s (%d nodes, example reading -> %s)\n", *out, len(nodes), label)
}
