package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	domref "github.com/kailas-cloud/spherenn/internal/domain/refset"
)

const scenarioEquatorPole = "equator-pole"

// referenceFile is the on-disk layout of a reference or query set:
//
//	name: sky
//	points:
//	  - {azimuth: 0, elevation: 0}
//	  - {azimuth: 0, elevation: 90}
type referenceFile struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Points      []geo.Coordinate `yaml:"points"`
}

// referenceFlags select where the reference set comes from.
type referenceFlags struct {
	file     string
	scenario string
}

func (f *referenceFlags) load() (domref.Set, error) {
	switch {
	case f.file != "" && f.scenario != "":
		return domref.Set{}, fmt.Errorf("--ref and --scenario are mutually exclusive")
	case f.scenario != "":
		if f.scenario != scenarioEquatorPole {
			return domref.Set{}, fmt.Errorf("unknown scenario %q (available: %s)", f.scenario, scenarioEquatorPole)
		}
		return domref.New("equator-pole", "four equator points and the north pole", geo.EquatorAndPole())
	case f.file != "":
		rf, err := readReferenceFile(f.file)
		if err != nil {
			return domref.Set{}, err
		}
		name := rf.Name
		if name == "" {
			name = "file"
		}
		return domref.New(name, rf.Description, rf.Points)
	default:
		return domref.Set{}, fmt.Errorf("a reference set is required: pass --ref <file> or --scenario %s", scenarioEquatorPole)
	}
}

func readReferenceFile(path string) (referenceFile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return referenceFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	var rf referenceFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return referenceFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return rf, nil
}

// parseCoordinate parses an azimuth/elevation pair given as positional arguments.
func parseCoordinate(az, el string) (geo.Coordinate, error) {
	a, err := strconv.ParseFloat(az, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("azimuth %q: %w", az, err)
	}
	e, err := strconv.ParseFloat(el, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("elevation %q: %w", el, err)
	}
	c := geo.Coordinate{AzimuthDeg: a, ElevationDeg: e}
	if !c.Finite() {
		return geo.Coordinate{}, fmt.Errorf("coordinates must be finite, got %s %s", az, el)
	}
	return c, nil
}
