package harness

// TraceEvent records one executed step and its observable outcome.
type TraceEvent struct {
	Seq      int    `json:"seq"`
	Op       string `json:"op"`
	Handle   int64  `json:"handle,omitempty"`
	Event    int64  `json:"event,omitempty"`
	Plan     int64  `json:"plan,omitempty"`
	State    string `json:"state,omitempty"`
	Restored *int   `json:"restored,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order. Used for
	// golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
