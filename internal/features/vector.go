// Package features turns a validated reading into the fixed-order numeric
// vector the irrigation classifier was trained on.
package features

import "irrigation-predictor/internal/reading"

// NumFeatures is the width of the model input.
const NumFeatures = 9

// FeatureVector holds one value per reading field, in reading.Fields order.
type FeatureVector [NumFeatures]float64

// Assemble maps r into model order. No scaling or transformation is applied.
func Assemble(r reading.Reading) FeatureVector {
	return FeatureVector{
		r.SoilMoisture,
		r.Temperature,
		r.SoilHumidity,
		r.Time,
		r.AirTemperature,
		r.WindSpeed,
		r.AirHumidity,
		r.WindGust,
		r.Pressure,
	}
}

// Names returns the feature names in vector order.
func Names() []string {
	names := make([]string, len(reading.Fields))
	for i, f := range reading.Fields {
		names[i] = f.Name
	}
	return names
}

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])
	return out
}
