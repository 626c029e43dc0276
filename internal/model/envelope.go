package model

// ResponseEnvelope is the normalised view every step variant produces for
// validations and extractors (spec §4.7, GLOSSARY "Response envelope"):
// {status_code, headers, cookies, url, body}. A database step populates
// Body with its rows and additionally exposes Rows/RowCount so assertion
// paths stay uniform across step kinds.
type ResponseEnvelope struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Cookies    map[string]string `json:"cookies"`
	URL        string            `json:"url"`
	Body       any               `json:"body"`

	// Rows/RowCount are populated by the database executor; Body mirrors
	// Rows for query operations so `$.body` and `$.rows` agree.
	Rows     []map[string]any `json:"rows,omitempty"`
	RowCount int64             `json:"rowcount,omitempty"`

	// WaitType/ActualWaitSeconds are populated by the wait executor (S1).
	WaitType          string  `json:"wait_type,omitempty"`
	ActualWaitSeconds float64 `json:"actual_wait_seconds,omitempty"`
}

// ToMap renders the envelope as a plain map so gjson-based path resolution
// (C4/C5) can run against its JSON-marshalled form uniformly.
func (e ResponseEnvelope) ToMap() map[string]any {
	m := map[string]any{
		"status_code": e.StatusCode,
		"headers":     e.Headers,
		"cookies":     e.Cookies,
		"url":         e.URL,
		"body":        e.Body,
	}
	if e.Rows != nil {
		m["rows"] = e.Rows
	}
	if e.RowCount != 0 {
		m["rowcount"] = e.RowCount
	}
	if e.WaitType != "" {
		m["wait_type"] = e.WaitType
		m["actual_wait_seconds"] = e.ActualWaitSeconds
	}
	return m
}
