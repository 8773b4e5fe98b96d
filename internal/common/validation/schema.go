// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gradabroad-workers/pkg/registry"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns "field: message" strings.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Summary joins all error messages into one line.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// InputValidator checks job variables against the input schema of the
// registered activity.
type InputValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewInputValidator compiles every activity input schema in reg.
func NewInputValidator(reg *registry.ActivityRegistry) (*InputValidator, error) {
	v := &InputValidator{schemas: make(map[string]*gojsonschema.Schema)}
	if reg == nil {
		return v, nil
	}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// Validate checks the raw JSON variables of a job. Task types without a
// schema always pass.
func (v *InputValidator) Validate(taskType, variables string) (*ValidationResult, error) {
	if v == nil {
		return &ValidationResult{Valid: true}, nil
	}
	schema, ok := v.schemas[taskType]
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return nil, fmt.Errorf("validate %s variables: %w", taskType, err)
	}
	return toResult(result), nil
}

// ValidateDocument checks an arbitrary JSON document against a schema map.
func ValidateDocument(schemaMap map[string]interface{}, document string) (*ValidationResult, error) {
	if len(schemaMap) == 0 {
		return &ValidationResult{Valid: true}, nil
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schemaMap),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out
}

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

// ValidateActivityNaming enforces the domain.subdomain.action id format.
func ValidateActivityNaming(activityID string) error {
	if !activityIDPattern.MatchString(activityID) {
		return fmt.Errorf("activity ID %q must follow format: domain.subdomain.action (e.g., application.draft.create)", activityID)
	}
	return nil
}

// ValidateRegistry checks ids, task types and that each input schema compiles.
func ValidateRegistry(reg *registry.ActivityRegistry) []error {
	var errs []error
	seen := make(map[string]bool)
	for _, a := range reg.Activities {
		if err := ValidateActivityNaming(a.ID); err != nil {
			errs = append(errs, err)
		}
		if a.TaskType == "" {
			errs = append(errs, fmt.Errorf("activity %s has no taskType", a.ID))
		} else if seen[a.TaskType] {
			errs = append(errs, fmt.Errorf("duplicate taskType %s", a.TaskType))
		}
		seen[a.TaskType] = true

		if len(a.InputSchema) > 0 {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema)); err != nil {
				errs = append(errs, fmt.Errorf("activity %s: invalid input schema: %w", a.ID, err))
			}
		}
	}
	return errs
}
