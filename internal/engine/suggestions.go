package engine

import "github.com/alexisbeaulieu97/streamy/internal/model"

// suggestions maps an ErrorInfo category to a short fixed hint string
// (spec §7), grounded on the distillation's step_executor error-suggestion
// table rather than any kind of diagnostic generator.
var suggestions = map[string]string{
	model.CategoryAssertion: "check the expected value against the actual response",
	model.CategoryNetwork:   "verify the target host is reachable and the URL is correct",
	model.CategoryTimeout:   "increase the step or wait timeout, or check why the dependency is slow",
	model.CategoryParsing:   "check the JSON/YAML shape and the path expression",
	model.CategoryBusiness:  "check the script source for a logic error",
	model.CategorySystem:    "see the stack trace for the underlying cause",
}
