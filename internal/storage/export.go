package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/earther/internal/calendar"
)

type ExportData struct {
	RunID   string      `json:"run_id"`
	Model   string      `json:"model"`
	VarName string      `json:"var_name"`
	Level   int         `json:"level"`
	Units   string      `json:"units"`
	Times   []float64   `json:"times"`
	Labels  []string    `json:"labels"`
	Data    [][]float64 `json:"data"`
}

func exportData(a *Archive) ExportData {
	data := ExportData{
		RunID:   a.Meta.RunID,
		Model:   a.Meta.Model,
		VarName: a.Meta.VarName,
		Level:   a.Meta.Level,
		Units:   a.Meta.Units,
		Times:   a.kf.Times,
		Labels:  make([]string, len(a.kf.Times)),
		Data:    a.kf.Data,
	}
	for i, t := range a.kf.Times {
		data.Labels[i] = calendar.LabelForTime(t)
	}
	return data
}

// WriteJSON encodes the archive with a calendar label per time step. Gaps
// are written as null.
func (a *Archive) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(a))
}

func (a *Archive) ExportJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return a.WriteJSON(file)
}
