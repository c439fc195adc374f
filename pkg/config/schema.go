package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
)

// durationPattern matches the strings time.ParseDuration accepts, which is
// how durations are written in the configuration file.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// Schema returns the JSON schema of the configuration file, with one
// description per top-level section.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "mapstructure",
		Mapper:                    mapType,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "DittoExplorer Configuration"
	schema.Description = "Configuration file for dittoexplorer. Every key can be overridden with DITTOEXPLORER_<SECTION>_<KEY>."

	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if desc, ok := sectionComments[pair.Key]; ok {
				pair.Value.Description = desc
			}
		}
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

func mapType(t reflect.Type) *jsonschema.Schema {
	if t == reflect.TypeOf(time.Duration(0)) {
		return &jsonschema.Schema{
			Type:        "string",
			Pattern:     durationPattern,
			Description: "Duration such as 30s, 5m or 1h",
		}
	}
	return nil
}
