package models

import (
	"encoding/json"
	"time"
)

// ControlDescriptor describes one form control found in the rendered page.
// Fields default to "" when the attribute is absent.
type ControlDescriptor struct {
	Tag         string `json:"tag"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	ID          string `json:"id"`
	Placeholder string `json:"placeholder"`
	AriaLabel   string `json:"aria_label"`
	Label       string `json:"label"`
	OuterHTML   string `json:"outer_html"`
}

// Ambiguous reports whether the control carries nothing a selector or a human could key on.
func (d ControlDescriptor) Ambiguous() bool {
	return d.ID == "" && d.Name == "" && d.Label == ""
}

// MappingEntry is one selector -> value pair proposed by the language model.
type MappingEntry struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

// ApplyResult is the outcome of applying one MappingEntry. Successes carry
// AppliedSelector and Value, failures carry Error.
type ApplyResult struct {
	Selector        string `json:"selector"`
	AppliedSelector string `json:"applied_selector,omitempty"`
	Value           string `json:"value,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Failed reports whether the entry could not be applied.
func (r ApplyResult) Failed() bool {
	return r.Error != ""
}

// MarshalJSON writes {selector, error} for failures and {selector, applied_selector, value}
// for successes, keeping an empty value on a success.
func (r ApplyResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Selector string `json:"selector"`
			Error    string `json:"error"`
		}{r.Selector, r.Error})
	}
	return json.Marshal(struct {
		Selector        string `json:"selector"`
		AppliedSelector string `json:"applied_selector"`
		Value           string `json:"value"`
	}{r.Selector, r.AppliedSelector, r.Value})
}

// AutofillRequest is the body of POST /autofill.
type AutofillRequest struct {
	URL     string `json:"url"`
	Details string `json:"details"`
}

// AutofillResponse is returned when the form was filled (possibly partially).
type AutofillResponse struct {
	Status       string        `json:"status"`
	Message      string        `json:"message"`
	URL          string        `json:"url"`
	Title        string        `json:"title"`
	MappedFields []ApplyResult `json:"mapped_fields"`
	Errors       []ApplyResult `json:"errors"`
	Notes        string        `json:"notes"`
	LLMRaw       string        `json:"llm_raw"`
	SessionID    string        `json:"session_id"`
	Screenshot   string        `json:"screenshot,omitempty"`
}

// SessionInfo is the operator-facing view of a browser left open for review.
type SessionInfo struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}
