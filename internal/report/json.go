package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/hyperifyio/callfinder/internal/calls"
)

type jsonReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Records     []calls.Record     `json:"records"`
	Diagnostics *calls.Diagnostics `json:"diagnostics,omitempty"`
	Warning     string             `json:"warning,omitempty"`
}

func writeJSON(w io.Writer, r Report) error {
	recs := r.Records
	if recs == nil {
		recs = []calls.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{GeneratedAt: r.GeneratedAt.UTC(), Records: recs, Diagnostics: r.Diagnostics, Warning: r.Warning})
}
