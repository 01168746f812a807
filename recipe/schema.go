package recipe

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

// Schema describes the persisted blob: an array of recipe records.
func Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: "Recipe collection in insertion order, unique by id.",
		Items: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id":          {Type: "string", Description: "Opaque token assigned at creation."},
				"title":       {Type: "string"},
				"ingredients": {Type: "string"},
				"preparation": {Type: "string", Description: "Absent on basic recipes."},
			},
			Required: []string{"id", "title", "ingredients"},
		},
	}
}
