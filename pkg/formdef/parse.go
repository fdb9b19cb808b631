package formdef

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a JSON or YAML definition and validates it. JSON is tried
// first; source names the document in error messages.
func Parse(data []byte, source string) (Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Definition{}, fmt.Errorf("formdef: %s is empty", source)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		def = Definition{}
		if yamlErr := yaml.Unmarshal(data, &def); yamlErr != nil {
			return Definition{}, fmt.Errorf("formdef: parse %s: invalid JSON or YAML: %w", source, yamlErr)
		}
	}
	def.Source = source
	normaliseSections(def.Fields)
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Load reads a definition from disk. Files ending in .hcl are parsed as HCL;
// everything else as JSON or YAML.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("formdef: read %s: %w", path, err)
	}
	return parseByExtension(data, path)
}

// LoadFS reads a definition from fsys.
func LoadFS(fsys fs.FS, name string) (Definition, error) {
	if fsys == nil {
		return Definition{}, fmt.Errorf("formdef: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Definition{}, fmt.Errorf("formdef: read %s: %w", name, err)
	}
	return parseByExtension(data, name)
}

func parseByExtension(data []byte, name string) (Definition, error) {
	if strings.EqualFold(filepath.Ext(name), ".hcl") {
		return ParseHCL(data, name)
	}
	return Parse(data, name)
}

func normaliseSections(fields []FieldDef) {
	for i := range fields {
		if len(fields[i].Fields) > 0 {
			fields[i].Type = TypeSection
			normaliseSections(fields[i].Fields)
		}
	}
}
