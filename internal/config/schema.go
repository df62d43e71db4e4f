// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the config file schema.
const SchemaID = "https://holomush.dev/schemas/opsdash-config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jschema.Schema
	errSchema      error
)

// GenerateSchema generates a JSON Schema from the Config struct.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Config{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "opsdash configuration"
	schema.Description = "Schema for the opsdash config.yaml file"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(err, "marshal schema")
	}
	return data, nil
}

// ValidateYAML validates config file bytes against the generated schema.
// An empty document is valid.
func ValidateYAML(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "invalid YAML")
	}
	if doc == nil {
		return nil
	}

	sch, err := schemaForValidation()
	if err != nil {
		return err
	}

	if err := sch.Validate(convertToJSONTypes(doc)); err != nil {
		return oops.Code(CodeInvalid).Wrapf(err, "schema validation failed")
	}
	return nil
}

func schemaForValidation() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := GenerateSchema()
		if err != nil {
			errSchema = err
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			errSchema = oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(err, "parse schema JSON")
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("schema.json", doc); err != nil {
			errSchema = oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(err, "add schema resource")
			return
		}
		compiledSchema, errSchema = c.Compile("schema.json")
		if errSchema != nil {
			errSchema = oops.Code("CONFIG_SCHEMA_FAILED").Wrapf(errSchema, "compile schema")
		}
	})
	return compiledSchema, errSchema
}

// convertToJSONTypes converts YAML-decoded values to JSON-compatible types.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, inner := range val {
			result[k] = convertToJSONTypes(inner)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, inner := range val {
			result[i] = convertToJSONTypes(inner)
		}
		return result
	case string, int, int64, float64, bool, nil:
		return val
	default:
		if b, err := json.Marshal(val); err == nil {
			var result any
			if err := json.Unmarshal(b, &result); err == nil {
				return result
			}
		}
		return val
	}
}

// FormatSchemaError strips wrapping so the operator sees only the
// validation detail.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, "schema validation failed: "); i >= 0 {
		msg = msg[i+len("schema validation failed: "):]
	}
	return msg
}
