package llm

import (
	"strconv"
	"sync"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/invopop/jsonschema"
)

var (
	analysisSchemaOnce sync.Once
	analysisSchema     *jsonschema.Schema
)

// AnalysisSchema returns the JSON schema of models.AnalysisResult, inlined without $refs.
// Fields without omitempty are required.
func AnalysisSchema() *jsonschema.Schema {
	analysisSchemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: true,
			DoNotReference:            true,
			ExpandedStruct:            true,
		}
		analysisSchema = reflector.Reflect(&models.AnalysisResult{})
	})
	return analysisSchema
}

// missingProperties walks a decoded JSON value and lists the required properties it lacks.
// A null array counts as present; it is normalized to an empty one later.
func missingProperties(path string, schema *jsonschema.Schema, value any) []string {
	if schema == nil {
		return nil
	}

	switch schema.Type {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return []string{path}
		}
		var missing []string
		for _, name := range schema.Required {
			childPath := joinPath(path, name)
			child, present := obj[name]
			prop, _ := schema.Properties.Get(name)
			if !present || (child == nil && (prop == nil || prop.Type != "array")) {
				missing = append(missing, childPath)
				continue
			}
			missing = append(missing, missingProperties(childPath, prop, child)...)
		}
		return missing

	case "array":
		items, ok := value.([]any)
		if !ok {
			return nil
		}
		var missing []string
		for i, item := range items {
			missing = append(missing, missingProperties(indexPath(path, i), schema.Items, item)...)
		}
		return missing
	}
	return nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
