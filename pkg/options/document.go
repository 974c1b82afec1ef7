package options

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/transit/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when a configuration document has no content.
var ErrEmptyDocument = errors.New("empty configuration document")

// Load reads a YAML or JSON configuration document from path.
func Load(path string) (*domain.Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a single configuration document. JSON is accepted as the
// subset of YAML it is.
//
//	core:
//	  platform_suffix: myconfig
//	  experimental_exec_configuration_distinguisher: full_hash
//	platform:
//	  platforms: ["//platform:target"]
func Decode(r io.Reader) (*domain.Configuration, error) {
	var doc domain.Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return domain.FromDocument(doc)
}

// Encode writes cfg as a YAML document that Decode accepts.
func Encode(w io.Writer, cfg *domain.Configuration) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.ToDocument()); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
