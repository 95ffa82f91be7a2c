package config

import "github.com/invopop/jsonschema"

// BuildSchema reflects the battle document contract into a JSON schema for
// validation and editor tooling. cmd/schema writes it to disk.
func BuildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(Document))
	schema.Title = "Orb Duel Battle"
	schema.Description = "Scripted two-orb battle consumed by the orbduel renderer and exporter."
	return schema
}
