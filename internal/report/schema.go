package report

import (
	"encoding/json"
	"os"

	"github.com/alexisbeaulieu97/streamy/internal/model"
)

// document is the v2.0 JSON shape spec §6 defines.
type document struct {
	TestCase       testCaseSummary        `json:"test_case"`
	Statistics     model.Statistics       `json:"statistics"`
	Steps          []stepDocument         `json:"steps"`
	FinalVariables map[string]any         `json:"final_variables"`
	CapturedOutput string                 `json:"captured_output,omitempty"`
}

type testCaseSummary struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Duration  float64 `json:"duration"`
}

type stepDocument struct {
	Name              string                     `json:"name"`
	Status            string                     `json:"status"`
	StartTime         string                     `json:"start_time,omitempty"`
	EndTime           string                     `json:"end_time,omitempty"`
	RetryCount        int                        `json:"retry_count"`
	Performance       *model.PerformanceMetrics  `json:"performance,omitempty"`
	Response          any                        `json:"response,omitempty"`
	ExtractedVars     map[string]any             `json:"extracted_vars,omitempty"`
	Validations       []model.ValidationResult   `json:"validations,omitempty"`
	ErrorInfo         *model.ErrorInfo           `json:"error_info,omitempty"`
	VariablesSnapshot map[string]any             `json:"variables_snapshot,omitempty"`
}

// ToJSON renders result to the external v2.0 document shape, masking
// sensitive fields in responses, extracted variables, and final variables.
// Stack traces are stripped even from a system-category ErrorInfo, per
// spec §7's "omitted from the report's serialised form by default".
func ToJSON(result model.TestCaseResult) ([]byte, error) {
	doc := document{
		TestCase: testCaseSummary{
			Name:      result.Name,
			Status:    result.Status,
			StartTime: result.StartTime.UTC().Format(iso8601),
			EndTime:   result.EndTime.UTC().Format(iso8601),
			Duration:  result.Duration(),
		},
		Statistics:     result.Statistics,
		Steps:          make([]stepDocument, 0, len(result.Steps)),
		FinalVariables: maskVariables(result.FinalVariables),
		CapturedOutput: result.CapturedOutput,
	}

	for _, s := range result.Steps {
		doc.Steps = append(doc.Steps, toStepDocument(s))
	}

	return json.MarshalIndent(doc, "", "  ")
}

// iso8601 is an ISO-8601/RFC 3339 layout with fixed millisecond precision;
// sub-millisecond digits are dropped.
const iso8601 = "2006-01-02T15:04:05.000Z07:00"

func toStepDocument(s model.StepResult) stepDocument {
	doc := stepDocument{
		Name:              s.Name,
		Status:            s.Status,
		RetryCount:        s.RetryCount,
		ExtractedVars:     maskVariables(s.ExtractedVars),
		Validations:       s.ValidationResults,
		VariablesSnapshot: maskVariables(s.VariablesSnapshot),
	}

	if !s.StartTime.IsZero() {
		doc.StartTime = s.StartTime.UTC().Format(iso8601)
	}
	if !s.EndTime.IsZero() {
		doc.EndTime = s.EndTime.UTC().Format(iso8601)
	}
	if s.Response != nil {
		doc.Response = maskValue(s.Response)
	}
	if s.Performance != (model.PerformanceMetrics{}) {
		perf := s.Performance
		doc.Performance = &perf
	}
	if s.ErrorInfo != nil {
		info := *s.ErrorInfo
		info.StackTrace = ""
		doc.ErrorInfo = &info
	}

	return doc
}

// Save writes result's JSON document to path.
func Save(result model.TestCaseResult, path string) error {
	data, err := ToJSON(result)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
