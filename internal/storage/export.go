package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/regsim/internal/sim"
)

type ExportData struct {
	Run          RunMetadata        `json:"run"`
	Steps        int                `json:"steps"`
	Times        []float64          `json:"times"`
	Measurements []float64          `json:"measurements"`
	Targets      []float64          `json:"targets"`
	Signals      []float64          `json:"signals"`
	Actuations   []float64          `json:"actuations"`
	Metrics      map[string]float64 `json:"metrics"`
}

// ExportJSON writes a run as column arrays.
func ExportJSON(w io.Writer, meta RunMetadata, ticks []sim.Tick) error {
	data := ExportData{
		Run:          meta,
		Steps:        len(ticks),
		Times:        make([]float64, len(ticks)),
		Measurements: make([]float64, len(ticks)),
		Targets:      make([]float64, len(ticks)),
		Signals:      make([]float64, len(ticks)),
		Actuations:   make([]float64, len(ticks)),
		Metrics:      meta.Metrics,
	}

	for i, tk := range ticks {
		data.Times[i] = tk.Time
		data.Measurements[i] = tk.Reading.Measurement
		data.Targets[i] = tk.Reading.Target
		data.Signals[i] = tk.Reading.Signal
		if len(tk.Control) > 0 {
			data.Actuations[i] = tk.Control[0]
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
