package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/verletsim/internal/sim"
)

type ExportData struct {
	Run           RunMetadata `json:"run"`
	Ticks         int         `json:"ticks"`
	Times         []float64   `json:"times"`
	Population    []int       `json:"population"`
	KineticEnergy []float64   `json:"kinetic_energy"`
	Overflow      []int       `json:"overflow"`
}

func newExportData(meta *RunMetadata, samples []sim.Sample) ExportData {
	data := ExportData{
		Run:           *meta,
		Ticks:         len(samples),
		Times:         make([]float64, len(samples)),
		Population:    make([]int, len(samples)),
		KineticEnergy: make([]float64, len(samples)),
		Overflow:      make([]int, len(samples)),
	}
	for i, s := range samples {
		data.Times[i] = s.Time
		data.Population[i] = s.Population
		data.KineticEnergy[i] = s.KineticEnergy
		data.Overflow[i] = s.Overflow
	}
	return data
}

func ExportJSON(path string, meta *RunMetadata, samples []sim.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeExport(file, meta, samples)
}

func ExportJSONStdout(meta *RunMetadata, samples []sim.Sample) error {
	return writeExport(os.Stdout, meta, samples)
}

func writeExport(w io.Writer, meta *RunMetadata, samples []sim.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, samples))
}
