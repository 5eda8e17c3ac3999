package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Mapping translates formatted ids (Curso_0001) to original course ids.
type Mapping map[string]string

type mappingFile struct {
	OriginalToFormatted map[string]string `json:"original_to_formatted"`
	FormattedToOriginal map[string]string `json:"formatted_to_original"`
}

// LoadMapping reads the formatted_to_original half of the mapping file. A
// missing or corrupt file yields an empty mapping plus the error; every
// later lookup then treats formatted ids as original ids.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("reading mapping file %s: %w", path, err)
	}
	var mf mappingFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return Mapping{}, fmt.Errorf("parsing mapping file %s: %w", path, err)
	}
	if mf.FormattedToOriginal == nil {
		return Mapping{}, nil
	}
	return Mapping(mf.FormattedToOriginal), nil
}

// Resolve returns the original id for formatted, or formatted itself when
// the mapping has no entry.
func (m Mapping) Resolve(formatted string) string {
	if original, ok := m[formatted]; ok {
		return original
	}
	return formatted
}

// DefaultMappingPath derives the mapping file location the corpus producer
// uses: curso.csv -> curso_mapping.json.
func DefaultMappingPath(indexPath string) string {
	if strings.HasSuffix(indexPath, ".csv") {
		return strings.TrimSuffix(indexPath, ".csv") + "_mapping.json"
	}
	return indexPath + "_mapping.json"
}
