package mappings

import "maps"

// ArticleSchema is the editorial article type.
func ArticleSchema() Schema {
	props := ContentProperties()
	maps.Copy(props, map[string]any{
		"title":          text(),
		"author":         keyword(),
		"byline_name":    keyword(),
		"published_date": date(),
		"tags":           keyword(),
		"category":       keyword(),
		"section":        keyword(),
		"word_count":     map[string]any{"type": "integer"},
		"og_image":       keyword(),
		"canonical_url":  keyword(),
	})
	return Schema{Name: "Article", Version: ArticleMappingVersion, Properties: props}
}

// ProductSchema is the catalog product type.
func ProductSchema() Schema {
	return Schema{
		Name:    "Product",
		Version: ProductMappingVersion,
		Properties: map[string]any{
			"code":        keyword(),
			"name":        map[string]any{"type": "text", "fields": map[string]any{"sort": keyword()}},
			"description": text(),
			"brand":       keyword(),
			"categories":  keyword(),
			"price":       map[string]any{"type": "scaled_float", "scaling_factor": 100},
			"currency":    keyword(),
			"in_stock":    map[string]any{"type": "boolean"},
			"market":      keyword(),
			"lang":        keyword(),
			"variants": map[string]any{
				"type": "nested",
				"properties": map[string]any{
					"sku":   keyword(),
					"price": map[string]any{"type": "scaled_float", "scaling_factor": 100},
					"stock": map[string]any{"type": "integer"},
				},
			},
			"changed": date(),
		},
	}
}

// Builtins are registered in every Registry.
func Builtins() []Schema {
	return []Schema{ArticleSchema(), ProductSchema()}
}
