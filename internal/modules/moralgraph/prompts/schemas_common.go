package prompts

func SchemaVersionedObject(version int, properties map[string]any, required []string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	properties["version"] = map[string]any{"type": "integer", "const": version}
	properties["warnings"] = StringArraySchema()

	req := []string{"version", "warnings"}
	req = append(req, required...)

	return ObjectSchema(properties, req)
}

func ObjectSchema(properties map[string]any, required []string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func ArraySchema(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func StringArraySchema() map[string]any {
	return ArraySchema(StringSchema())
}

func StringOrNullSchema() map[string]any {
	return map[string]any{
		"type": []any{"string", "null"},
	}
}

func BoolSchema() map[string]any {
	return map[string]any{"type": "boolean"}
}
