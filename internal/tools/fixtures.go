package tools

import (
	"embed"
	"fmt"

	"github.com/nullvoyager/voyager/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// Fixtures is the substitute data served when a live provider is unavailable.
type Fixtures struct {
	Flights      []domain.Flight
	Hotels       []domain.Hotel
	Destinations []domain.Destination
}

// LoadFixtures decodes the embedded fixture files.
func LoadFixtures() (*Fixtures, error) {
	f := &Fixtures{}
	if err := readFixture("fixtures/flights.yaml", &f.Flights); err != nil {
		return nil, err
	}
	if err := readFixture("fixtures/hotels.yaml", &f.Hotels); err != nil {
		return nil, err
	}
	if err := readFixture("fixtures/destinations.yaml", &f.Destinations); err != nil {
		return nil, err
	}
	return f, nil
}

// MustLoadFixtures is LoadFixtures for package initialization; the files are compiled in.
func MustLoadFixtures() *Fixtures {
	f, err := LoadFixtures()
	if err != nil {
		panic(err)
	}
	return f
}

func readFixture(name string, out any) error {
	data, err := fixtureFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
