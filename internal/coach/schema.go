package coach

import (
	"fmt"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/analysis.schema.json
var analysisSchemaJSON string

//go:embed schemas/roadmap.schema.json
var roadmapSchemaJSON string

var (
	analysisSchema = mustSchema("analysis", analysisSchemaJSON)
	roadmapSchema  = mustSchema("roadmap", roadmapSchemaJSON)
)

func mustSchema(name, raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return schema
}

// validate checks raw JSON against schema and returns the violations.
func validate(schema *gojsonschema.Schema, raw []byte) ([]FieldError, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fields = append(fields, FieldError{Field: field, Message: desc.Description()})
	}
	return fields, nil
}
