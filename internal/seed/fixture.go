package seed

import (
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed fixture.yml
var defaultFixture []byte

// Fixture is the static demo content the seeder draws from.
type Fixture struct {
	Categories []string `yaml:"categories"`
	FirstNames []string `yaml:"first_names"`
	LastNames  []string `yaml:"last_names"`
	Rooms      []string `yaml:"rooms"`
}

// DefaultFixture returns the fixture compiled into the binary.
func DefaultFixture() (*Fixture, error) {
	return parseFixture(defaultFixture)
}

// LoadFixture reads a fixture from r.
func LoadFixture(r io.Reader) (*Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("fixture has no categories")
	}
	if len(f.FirstNames) == 0 || len(f.LastNames) == 0 {
		return nil, fmt.Errorf("fixture needs first_names and last_names")
	}
	if len(f.Rooms) == 0 {
		f.Rooms = []string{"квартиры"}
	}
	return &f, nil
}
