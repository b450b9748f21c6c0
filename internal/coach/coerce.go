package coach

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// Stage names the coercion step that rejected a response.
type Stage string

const (
	StageEmpty    Stage = "empty"
	StageJSON     Stage = "json"
	StageSchema   Stage = "schema"
	StageDecode   Stage = "decode"
	StageGenerate Stage = "generate"
)

// FieldError is a single violation at a JSON field path.
type FieldError struct {
	Field   string
	Message string
}

// DecodeError reports why a model response could not be coerced.
type DecodeError struct {
	Stage  Stage
	Fields []FieldError
	Cause  error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "decode %s failed", e.Stage)
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	for i, f := range e.Fields {
		if i == 0 {
			sb.WriteString(":")
		} else {
			sb.WriteString(";")
		}
		fmt.Fprintf(&sb, " %s: %s", f.Field, f.Message)
	}
	return sb.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// StripCodeFence removes a leading ```json or ``` fence and a trailing ```
// fence, then trims surrounding whitespace.
func StripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
	}
	if strings.HasSuffix(raw, "```") {
		raw = strings.TrimSuffix(raw, "```")
	}
	return strings.TrimSpace(raw)
}

func decode[T any](raw string, schema *gojsonschema.Schema) (T, error) {
	var out T

	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return out, &DecodeError{Stage: StageEmpty}
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	if err := dec.Decode(&doc); err != nil {
		return out, &DecodeError{Stage: StageJSON, Cause: err}
	}
	if dec.More() {
		return out, &DecodeError{Stage: StageJSON, Cause: errors.New("trailing data after JSON value")}
	}

	fields, err := validate(schema, []byte(cleaned))
	if err != nil {
		return out, &DecodeError{Stage: StageSchema, Cause: err}
	}
	if len(fields) > 0 {
		return out, &DecodeError{Stage: StageSchema, Fields: fields}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return out, &DecodeError{Stage: StageDecode, Cause: err}
	}
	if err := decoder.Decode(doc); err != nil {
		return out, &DecodeError{Stage: StageDecode, Cause: err}
	}

	return out, nil
}

// DecodeAnalysis strictly decodes a model response into an AnalysisResult.
// The returned error is always a *DecodeError.
func DecodeAnalysis(raw string) (AnalysisResult, error) {
	result, err := decode[AnalysisResult](raw, analysisSchema)
	if err != nil {
		return AnalysisResult{}, err
	}
	if result.Improvements == nil {
		result.Improvements = []string{}
	}
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	return result, nil
}

// DecodeRoadmap strictly decodes a model response into a Roadmap. Node ids
// must be unique. Completed is forced to false.
func DecodeRoadmap(raw string) (Roadmap, error) {
	roadmap, err := decode[Roadmap](raw, roadmapSchema)
	if err != nil {
		return Roadmap{}, err
	}

	seen := make(map[string]struct{}, len(roadmap.Nodes))
	var dups []FieldError
	for i := range roadmap.Nodes {
		id := roadmap.Nodes[i].ID
		if _, ok := seen[id]; ok {
			dups = append(dups, FieldError{
				Field:   fmt.Sprintf("nodes.%d.id", i),
				Message: fmt.Sprintf("duplicate node id %q", id),
			})
		}
		seen[id] = struct{}{}
		roadmap.Nodes[i].Completed = false
	}
	if len(dups) > 0 {
		return Roadmap{}, &DecodeError{Stage: StageDecode, Fields: dups}
	}

	return roadmap, nil
}

// Outcome is the result of coercing a generation attempt. When Fallback is
// set Value holds the fixed fallback for T and Reason explains why.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Reason   error
}

// Coerce turns a generation result into an Outcome. It never fails: any
// generation or decode error yields fallback() instead.
func Coerce[T any](raw string, genErr error, decodeFn func(string) (T, error), fallback func() T) Outcome[T] {
	if genErr != nil {
		return Outcome[T]{Value: fallback(), Fallback: true, Reason: &DecodeError{Stage: StageGenerate, Cause: genErr}}
	}

	value, err := safeDecode(raw, decodeFn)
	if err != nil {
		return Outcome[T]{Value: fallback(), Fallback: true, Reason: err}
	}
	return Outcome[T]{Value: value}
}

func safeDecode[T any](raw string, decodeFn func(string) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = &DecodeError{Stage: StageDecode, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return decodeFn(raw)
}

// CoerceAnalysis coerces a resume analysis response.
func CoerceAnalysis(raw string, genErr error) Outcome[AnalysisResult] {
	return Coerce(raw, genErr, DecodeAnalysis, FallbackAnalysis)
}

// CoerceRoadmap coerces a roadmap response.
func CoerceRoadmap(raw string, genErr error) Outcome[Roadmap] {
	return Coerce(raw, genErr, DecodeRoadmap, FallbackRoadmap)
}
