// Package reading defines the sensor and weather reading accepted by the
// prediction endpoint and validates it against physical bounds.
//
// Fields is the single source of truth for the nine measurements: their JSON
// names, units, inclusive ranges and the order the classifier consumes them in.
package reading

// Field describes one measurement of a Reading.
type Field struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// Contains reports whether v lies in the closed interval [Min, Max].
func (f Field) Contains(v float64) bool {
	return v >= f.Min && v <= f.Max
}

// Field names as they appear on the wire
const (
	SoilMoisture   = "soil_moisture"
	Temperature    = "temperature"
	SoilHumidity   = "soil_humidity"
	Time           = "time"
	AirTemperature = "air_temperature"
	WindSpeed      = "wind_speed"
	AirHumidity    = "air_humidity"
	WindGust       = "wind_gust"
	Pressure       = "pressure"
)

// Fields lists every measurement in the order the model was trained on.
// Reordering this slice silently corrupts predictions.
var Fields = []Field{
	{Name: SoilMoisture, Description: "Soil Moisture", Unit: "%", Min: 0, Max: 100},
	{Name: Temperature, Description: "Temperature", Unit: "°C", Min: -50, Max: 50},
	{Name: SoilHumidity, Description: "Soil Humidity", Unit: "%", Min: 0, Max: 100},
	{Name: Time, Description: "Time", Unit: "h", Min: 0, Max: 24},
	{Name: AirTemperature, Description: "Air Temperature", Unit: "°C", Min: -50, Max: 50},
	{Name: WindSpeed, Description: "Wind Speed", Unit: "km/h", Min: 0, Max: 150},
	{Name: AirHumidity, Description: "Air Humidity", Unit: "%", Min: 0, Max: 100},
	{Name: WindGust, Description: "Wind Gust", Unit: "km/h", Min: 0, Max: 200},
	{Name: Pressure, Description: "Pressure", Unit: "kPa", Min: 80, Max: 120},
}

// Lookup returns the field with the given wire name.
func Lookup(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Reading is one set of measurements for a single prediction request.
type Reading struct {
	SoilMoisture   float64 `json:"soil_moisture"`
	Temperature    float64 `json:"temperature"`
	SoilHumidity   float64 `json:"soil_humidity"`
	Time           float64 `json:"time"`
	AirTemperature float64 `json:"air_temperature"`
	WindSpeed      float64 `json:"wind_speed"`
	AirHumidity    float64 `json:"air_humidity"`
	WindGust       float64 `json:"wind_gust"`
	Pressure       float64 `json:"pressure"`
}

// Value returns the measurement stored under the given wire name.
func (r Reading) Value(name string) (float64, bool) {
	switch name {
	case SoilMoisture:
		return r.SoilMoisture, true
	case Temperature:
		return r.Temperature, true
	case SoilHumidity:
		return r.SoilHumidity, true
	case Time:
		return r.Time, true
	case AirTemperature:
		return r.AirTemperature, true
	case WindSpeed:
		return r.WindSpeed, true
	case AirHumidity:
		return r.AirHumidity, true
	case WindGust:
		return r.WindGust, true
	case Pressure:
		return r.Pressure, true
	}
	return 0, false
}

// with returns a copy of r with the named measurement set to v.
func (r Reading) with(name string, v float64) Reading {
	switch name {
	case SoilMoisture:
		r.SoilMoisture = v
	case Temperature:
		r.Temperature = v
	case SoilHumidity:
		r.SoilHumidity = v
	case Time:
		r.Time = v
	case AirTemperature:
		r.AirTemperature = v
	case WindSpeed:
		r.WindSpeed = v
	case AirHumidity:
		r.AirHumidity = v
	case WindGust:
		r.WindGust = v
	case Pressure:
		r.Pressure = v
	}
	return r
}
