package model

const (
	// CategoryAssertion marks a failure raised by the validation engine (C5).
	CategoryAssertion = "assertion"
	// CategoryNetwork marks connection/DNS/TLS failures.
	CategoryNetwork = "network"
	// CategoryTimeout marks a deadline or max_wait exceeded.
	CategoryTimeout = "timeout"
	// CategoryParsing marks JSON/YAML decode or bad-JSONPath failures.
	CategoryParsing = "parsing"
	// CategoryBusiness marks an error raised from within a script step.
	CategoryBusiness = "business"
	// CategorySystem is the catch-all bucket.
	CategorySystem = "system"
)

// ErrorInfo describes a step's terminal failure (spec §3/§7).
type ErrorInfo struct {
	Type       string `json:"type"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
	StackTrace string `json:"stack_trace,omitempty"`
}
