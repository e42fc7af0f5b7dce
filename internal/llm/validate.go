package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The envelope schema is static, so it is compiled once at package load.
// A compile failure here is a programming error in BuildPropertiesJSONSchema,
// not a runtime condition.
var envelopeSchema = mustCompileEnvelopeSchema()

func mustCompileEnvelopeSchema() *jsonschema.Schema {
	b, err := json.Marshal(BuildPropertiesJSONSchema())
	if err != nil {
		panic(fmt.Sprintf("marshal envelope schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("listing_envelope.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add envelope schema: %v", err))
	}
	schema, err := compiler.Compile("listing_envelope.json")
	if err != nil {
		panic(fmt.Sprintf("compile envelope schema: %v", err))
	}
	return schema
}

// ValidateEnvelope checks a sanitized model response against the
// {"properties": [...]} envelope schema before it is trusted.
func ValidateEnvelope(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := envelopeSchema.Validate(v); err != nil {
		return fmt.Errorf("envelope does not match schema: %w", err)
	}
	return nil
}
