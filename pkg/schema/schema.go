package schema

import (
	"github.com/invopop/jsonschema"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}
	var v T
	return r.Reflect(v)
}

// ExtractionSchema describes the JSON the model must return for dialogue extraction.
var ExtractionSchema = generateSchema[ExtractionResult]()
