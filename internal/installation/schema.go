package installation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidParameters wraps schema violations of a parameters blob.
var ErrInvalidParameters = errors.New("installation: invalid parameters")

const parametersSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "spaceType": {"enum": ["source", "consumer", "sourceandconsumer", null]},
    "sourceSpaceId": {"type": ["string", "null"], "maxLength": 64},
    "sourceDeliveryToken": {"type": ["string", "null"]},
    "sourceConnectionValidated": {"type": "boolean"},
    "patternMatches": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  },
  "required": ["spaceType", "sourceConnectionValidated", "patternMatches"]
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func parametersValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("parameters.json", strings.NewReader(parametersSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("parameters.json")
	})
	return compiledSchema, schemaErr
}

// Issue is one schema violation.
type Issue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// ValidationError lists the violations of a parameters blob.
type ValidationError struct {
	Issues []Issue
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 && e.Cause != nil {
		return fmt.Sprintf("%s: %v", ErrInvalidParameters, e.Cause)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		}
		parts = append(parts, location+": "+issue.Message)
	}
	return ErrInvalidParameters.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidParameters }

// ValidateRaw checks a raw parameters blob against the schema.
func ValidateRaw(raw []byte) error {
	schema, err := parametersValidator()
	if err != nil {
		return fmt.Errorf("installation: compile schema: %w", err)
	}
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return &ValidationError{Cause: err}
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Issues: collectIssues(verr), Cause: err}
		}
		return &ValidationError{Cause: err}
	}
	return nil
}

// Validate checks p against the schema.
func (p Parameters) Validate() error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return ValidateRaw(raw)
}

// Decode validates raw and decodes it. Empty input yields Default().
func Decode(raw []byte) (Parameters, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "{}" || string(bytes.TrimSpace(raw)) == "null" {
		return Default(), nil
	}
	if err := ValidateRaw(raw); err != nil {
		return Parameters{}, err
	}
	var p Parameters
	if err := json.Unmarshal(raw, &p); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
