package mailprobe

import "github.com/optimode/mailprobe/types"

// Result is the verification outcome for one candidate address.
type Result struct {
	Email      string `json:"email"`
	Status     Status `json:"status"`
	Confidence int    `json:"confidence"`
	MXHost     string `json:"mxHost,omitempty"`
	Message    string `json:"message,omitempty"`
	Disposable bool   `json:"disposable,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// OutcomeOf maps a probe verdict to its status and confidence.
func OutcomeOf(v Verdict) (Status, int) {
	return types.Outcome(v)
}

// Valid reports whether the mail server accepted the mailbox.
func (r Result) Valid() bool {
	return r.Status == StatusValid
}

// ValidOnly returns the results whose mailbox was accepted, keeping order.
// Verify* calls report every status; this is for callers that only want
// confirmed addresses.
func ValidOnly(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

// ByStatus counts results per status.
func ByStatus(results []Result) map[Status]int {
	out := make(map[Status]int, 3)
	for _, r := range results {
		out[r.Status]++
	}
	return out
}
