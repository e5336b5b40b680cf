package mappings

// DefaultContentTypeName is the type reported for indices on the built-in schema.
const DefaultContentTypeName = "IndexItem"

func keyword() map[string]any { return map[string]any{"type": "keyword"} }
func text() map[string]any    { return map[string]any{"type": "text"} }
func date() map[string]any    { return map[string]any{"type": "date"} }

// ContentProperties are the fields every content document carries.
func ContentProperties() map[string]any {
	return map[string]any{
		"id":            map[string]any{"type": "long"},
		"name":          map[string]any{"type": "text", "fields": map[string]any{"sort": keyword()}},
		"type":          keyword(),
		"types":         keyword(),
		"path":          keyword(),
		"parent_link":   keyword(),
		"lang":          keyword(),
		"url":           keyword(),
		"start_publish": date(),
		"stop_publish":  date(),
		"created":       date(),
		"changed":       date(),
		"deleted":       map[string]any{"type": "boolean"},
		"content":       text(),
		"main_intro":    text(),
		"main_body":     text(),
		"attachment":    text(),
		"acl":           keyword(),
		"suggest":       map[string]any{"type": "completion"},
	}
}

// ContentMapping is the mappings body for the default content type.
func ContentMapping() map[string]any {
	return withMeta(ContentMappingVersion, DefaultContentTypeName, ContentProperties())
}

func withMeta(version, typeName string, properties map[string]any) map[string]any {
	return map[string]any{
		"_meta": map[string]any{
			"mapping_version": version,
			"type_name":       typeName,
		},
		"properties": properties,
	}
}
