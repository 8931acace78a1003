package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLI_Help_ListsAllCommands(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, cmd := range []string{"distance", "nearest", "validate", "version"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("--help output should contain %q command", cmd)
		}
	}
}

func TestCLI_Distance(t *testing.T) {
	out, err := run(t, "distance", "0", "0", "0", "90", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res distanceResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if math.Abs(res.Radians-math.Pi/2) > 1e-12 || res.Metric != "great_circle" {
		t.Errorf("unexpected result %+v", res)
	}

	out, err = run(t, "distance", "0", "0", "180", "0", "--metric", "haversine")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "180.00000") {
		t.Errorf("human output: %q", out)
	}
}

func TestCLI_Distance_Errors(t *testing.T) {
	cases := [][]string{
		{"distance", "0", "0", "1"},
		{"distance", "x", "0", "1", "1"},
		{"distance", "NaN", "0", "1", "1"},
		{"distance", "0", "0", "1", "1", "--metric", "manhattan"},
	}
	for _, args := range cases {
		if _, err := run(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestCLI_Nearest_Scenario(t *testing.T) {
	for _, engine := range []string{"balltree", "vptree", "brute"} {
		t.Run(engine, func(t *testing.T) {
			out, err := run(t, "nearest", "95", "80", "--scenario", "equator-pole", "-k", "2",
				"--engine", engine, "--check", "--json")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var res nearestResult
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if len(res.Neighbors) != 2 || res.Neighbors[0].Index != 4 || res.Neighbors[1].Index != 1 {
				t.Errorf("want [4 1], got %+v", res.Neighbors)
			}
			if res.Brute == nil || res.Brute.Index != 4 {
				t.Errorf("brute check missing or wrong: %+v", res.Brute)
			}
			if res.Engine != engine {
				t.Errorf("engine = %q", res.Engine)
			}
		})
	}
}

func TestCLI_Nearest_ReferenceFile(t *testing.T) {
	path := writeFile(t, "ref.yaml", `name: pair
points:
  - {azimuth: 10, elevation: 10}
  - {azimuth: 200, elevation: -45}
`)
	out, err := run(t, "nearest", "190", "-40", "--ref", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "pair") || !strings.Contains(out, "#1 (200, -45)") {
		t.Errorf("human output: %q", out)
	}
}

func TestCLI_Nearest_Errors(t *testing.T) {
	bad := writeFile(t, "bad.yaml", "points: [")
	cases := [][]string{
		{"nearest", "0", "0"},
		{"nearest", "0", "0", "--scenario", "galaxy"},
		{"nearest", "0", "0", "--scenario", "equator-pole", "--ref", bad},
		{"nearest", "0", "0", "--ref", bad},
		{"nearest", "0", "0", "--ref", filepath.Join(t.TempDir(), "missing.yaml")},
		{"nearest", "0", "0", "--scenario", "equator-pole", "--engine", "kdtree"},
		{"nearest", "0", "0", "--scenario", "equator-pole", "-k", "0"},
	}
	for _, args := range cases {
		if _, err := run(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestCLI_Validate(t *testing.T) {
	out, err := run(t, "validate", "--scenario", "equator-pole", "--count", "100", "--seed", "3", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rep validation.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rep.Total != 100 || !rep.Passed() || rep.Coverage == nil {
		t.Errorf("unexpected report %+v", rep)
	}

	out, err = run(t, "validate", "--scenario", "equator-pole", "--count", "10", "--engine", "vptree")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "PASS") {
		t.Errorf("human output: %q", out)
	}
}

func TestCLI_Validate_QueryFile(t *testing.T) {
	queries := writeFile(t, "q.yaml", `points:
  - {azimuth: 44, elevation: 1}
  - {azimuth: 300, elevation: 60}
`)
	out, err := run(t, "validate", "--scenario", "equator-pole", "--queries", queries, "--tolerance", "0", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rep validation.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Total != 2 || rep.ExactMatches != 2 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestCLI_Validate_EmptyReference(t *testing.T) {
	empty := writeFile(t, "empty.yaml", "name: none\npoints: []\n")
	_, err := run(t, "validate", "--ref", empty)
	if err == nil || errors.Is(err, errValidationFailed) {
		t.Fatalf("want empty reference set error, got %v", err)
	}
}

func TestCLI_Version(t *testing.T) {
	out, err := run(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatal(err)
	}
	if info.Version == "" || info.Go == "" {
		t.Errorf("incomplete version info %+v", info)
	}
}
