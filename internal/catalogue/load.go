package catalogue

import (
	"fmt"
	"io"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxCatalogueFileSize = 4 * 1024 * 1024 // 4MB

// catalogueFile mirrors the YAML document structure.
type catalogueFile struct {
	Version  string        `koanf:"version"`
	Patterns []PatternSpec `koanf:"patterns"`
	Gates    []GateSpec    `koanf:"gates"`
}

// LoadBytes parses and validates a catalogue from YAML bytes.
func LoadBytes(data []byte) (*Catalogue, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue yaml: %w", err)
	}

	var file catalogueFile
	if err := k.Unmarshal("", &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue: %w", err)
	}

	return New(file.Version, file.Patterns, file.Gates)
}

// LoadFile loads a catalogue from a YAML file on disk.
func LoadFile(path string) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalogue file: %w", err)
	}
	if info.Size() > maxCatalogueFileSize {
		return nil, fmt.Errorf("catalogue file too large: %d bytes (max %d)", info.Size(), maxCatalogueFileSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue file: %w", err)
	}

	return LoadBytes(data)
}
