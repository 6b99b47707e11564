// Package location turns CLI input into coordinates, either by looking a city
// up in the bundled dataset or by parsing a literal "lat,lon" pair.
package location

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"waktusholat/internal/model"
)

//go:embed cities.json
var embeddedCities []byte

// City is one dataset entry.
type City struct {
	Name string `json:"name"`
	Lat  degree `json:"lat"`
	Lon  degree `json:"lon"`
}

// degree accepts both JSON numbers and numeric strings.
type degree float64

func (d *degree) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid degree %q: %w", s, err)
		}
		*d = degree(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return errors.New("expected string or number")
	}
	*d = degree(f)
	return nil
}

// Coordinates returns the entry's position.
func (c City) Coordinates() model.Coordinates {
	return model.Coordinates{Latitude: float64(c.Lat), Longitude: float64(c.Lon)}
}

// Dataset is an immutable city table. Build it once and share it by pointer.
type Dataset struct {
	cities []City
}

// NewDataset parses the embedded cities.json.
func NewDataset() (*Dataset, error) {
	return ParseDataset(embeddedCities)
}

// ParseDataset parses a JSON array of {name, lat, lon} objects.
func ParseDataset(data []byte) (*Dataset, error) {
	var cities []City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("parse city dataset: %w", err)
	}
	return &Dataset{cities: cities}, nil
}

// Len returns the number of entries.
func (d *Dataset) Len() int {
	return len(d.cities)
}

// Lookup finds a city by case-insensitive exact name.
func (d *Dataset) Lookup(name string) (City, error) {
	for _, c := range d.cities {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return City{}, fmt.Errorf("%w: city %q not found in the local database", model.ErrLookup, name)
}

// ParseCoordinate parses "lat,lon". Exactly two comma-separated numeric
// fields are required; range checking is left to the prayer time provider.
func ParseCoordinate(s string) (model.Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinates{}, fmt.Errorf("%w: invalid coordinate %q, use `lat,lon`", model.ErrConfiguration, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: invalid latitude %q", model.ErrConfiguration, parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: invalid longitude %q", model.ErrConfiguration, parts[1])
	}
	return model.Coordinates{Latitude: lat, Longitude: lon}, nil
}

// Resolver produces coordinates from the mutually exclusive --city and
// --coordinate inputs.
type Resolver struct {
	// Dataset is consulted for city names. If nil, it is built from the
	// embedded table on the first city lookup.
	Dataset *Dataset
}

// Resolve returns the coordinates for exactly one of city or coordinate.
func (r *Resolver) Resolve(city, coordinate string) (model.Coordinates, error) {
	city = strings.TrimSpace(city)
	coordinate = strings.TrimSpace(coordinate)

	switch {
	case city != "" && coordinate != "":
		return model.Coordinates{}, fmt.Errorf("%w: --city and --coordinate are mutually exclusive", model.ErrConfiguration)
	case city == "" && coordinate == "":
		return model.Coordinates{}, fmt.Errorf("%w: please provide either --city or --coordinate", model.ErrConfiguration)
	case coordinate != "":
		return ParseCoordinate(coordinate)
	}

	if r.Dataset == nil {
		ds, err := NewDataset()
		if err != nil {
			return model.Coordinates{}, err
		}
		r.Dataset = ds
	}
	c, err := r.Dataset.Lookup(city)
	if err != nil {
		return model.Coordinates{}, err
	}
	return c.Coordinates(), nil
}
