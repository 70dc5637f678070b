package calls

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultErrorSummaryLimit bounds the joined error log exposed to callers.
const DefaultErrorSummaryLimit = 900

// Diagnostics holds the counters of a single pipeline run. One value is
// created per run and passed to every component that updates it; it is not
// safe for concurrent use and must not be shared between runs.
type Diagnostics struct {
	RunID              string   `json:"run_id"`
	Provider           string   `json:"provider"`
	AICalls            int      `json:"ai_calls"`
	AISuccesses        int      `json:"ai_successes"`
	HeuristicFallbacks int      `json:"heuristic_fallbacks"`
	AIErrors           []string `json:"ai_errors"`
}

// NewDiagnostics starts a fresh set of counters with a new run ID.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{RunID: uuid.NewString(), AIErrors: []string{}}
}

// RecordCall counts one request sent to a provider.
func (d *Diagnostics) RecordCall() {
	if d != nil {
		d.AICalls++
	}
}

// RecordSuccess counts one provider request that produced usable records.
func (d *Diagnostics) RecordSuccess() {
	if d != nil {
		d.AISuccesses++
	}
}

// RecordFallback counts one page handled by the heuristic extractor.
func (d *Diagnostics) RecordFallback() {
	if d != nil {
		d.HeuristicFallbacks++
	}
}

// RecordError appends a provider error message.
func (d *Diagnostics) RecordError(msg string) {
	if d == nil {
		return
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	d.AIErrors = append(d.AIErrors, msg)
}

// ErrorSummary joins the error log with "; " and truncates it to limit bytes
// without splitting a UTF-8 sequence. A limit <= 0 uses the default.
func (d *Diagnostics) ErrorSummary(limit int) string {
	if d == nil || len(d.AIErrors) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = DefaultErrorSummaryLimit
	}
	s := strings.Join(d.AIErrors, "; ")
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
