package report

import (
	"encoding/json"
	"io"

	"github.com/nvandessel/selectorate/internal/config"
	"github.com/nvandessel/selectorate/internal/simulation"
)

// RunDocument is the JSON form of a single run.
type RunDocument struct {
	Config  config.SimConfig              `json:"config"`
	Summary simulation.Summary            `json:"summary"`
	Records []simulation.GenerationRecord `json:"records,omitempty"`
	Final   []CandidateView               `json:"final_pool"`
}

// CandidateView is a candidate as shown in reports.
type CandidateView struct {
	Slot     int     `json:"slot"`
	ID       int     `json:"id"`
	ParentID int     `json:"parent_id"`
	Position float64 `json:"position"`
	Alpha    float64 `json:"alpha"`
}

// ReplicateDocument is the JSON form of a replicate batch.
type ReplicateDocument struct {
	Config    config.SimConfig     `json:"config"`
	Runs      []simulation.Summary `json:"runs"`
	Aggregate simulation.Aggregate `json:"aggregate"`
}

// NewRunDocument builds the JSON document for run. Records are included
// only when withRecords is set.
func NewRunDocument(run *simulation.Run, withRecords bool) RunDocument {
	doc := RunDocument{
		Config:  run.Config,
		Summary: run.Summarize(),
		Final:   make([]CandidateView, 0, run.FinalPool.Len()),
	}
	if withRecords {
		doc.Records = run.Records
	}
	for slot, c := range run.FinalPool.Slots {
		doc.Final = append(doc.Final, CandidateView{
			Slot: slot, ID: c.ID, ParentID: c.ParentID, Position: c.Position, Alpha: c.Alpha,
		})
	}
	return doc
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
