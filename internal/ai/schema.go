package ai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSON-схемы ответов модели. Ответ, не прошедший проверку, считается сбоем.
const (
	questionSchema = `{
  "type": "object",
  "required": ["question"],
  "properties": {
    "question":   {"type": "string", "minLength": 1},
    "difficulty": {"type": "string", "enum": ["easy", "medium", "hard"]},
    "timeLimit":  {"type": "number", "minimum": 1}
  }
}`

	scoreSchema = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score":        {"type": "number"},
    "feedback":     {"type": "string"},
    "strengths":    {"type": "array", "items": {"type": "string"}},
    "improvements": {"type": "array", "items": {"type": "string"}}
  }
}`

	summarySchema = `{
  "type": "object",
  "required": ["summary"],
  "properties": {
    "overallScore":   {"type": "number"},
    "summary":        {"type": "string", "minLength": 1},
    "strengths":      {"type": "array", "items": {"type": "string"}},
    "weaknesses":     {"type": "array", "items": {"type": "string"}},
    "recommendation": {"type": "string"}
  }
}`
)

var (
	questionSchemaLoader = gojsonschema.NewStringLoader(questionSchema)
	scoreSchemaLoader    = gojsonschema.NewStringLoader(scoreSchema)
	summarySchemaLoader  = gojsonschema.NewStringLoader(summarySchema)
)

// SchemaError - ответ модели не соответствует схеме
type SchemaError struct {
	Fields []string
}

func (e *SchemaError) Error() string {
	return "llm response does not match schema: " + strings.Join(e.Fields, "; ")
}

// validateResponse проверяет JSON-ответ модели по схеме
func validateResponse(schema gojsonschema.JSONLoader, raw string) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("validate llm response: %w", err)
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{Fields: make([]string, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Fields = append(schemaErr.Fields, field+": "+desc.Description())
	}
	return schemaErr
}
