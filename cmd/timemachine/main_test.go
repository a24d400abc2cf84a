package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/ljmartin/timemachine/internal/config"
)

// The dimer starts at its rest geometry, so the described energies are
// exact zeros and the output is stable enough to pin byte for byte.
func TestDescribeDimerGolden(t *testing.T) {
	var buf bytes.Buffer
	if err := describeConfig(&buf, config.DefaultConfig()); err != nil {
		t.Fatalf("describe: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "describe_dimer", buf.Bytes())
}

func TestDescribeChainListsAllTerms(t *testing.T) {
	cfg := *config.GetPreset("chain", "small")

	var buf bytes.Buffer
	if err := describeConfig(&buf, &cfg); err != nil {
		t.Fatalf("describe: %v", err)
	}

	out := buf.String()
	for _, term := range []string{"bonds", "angles", "torsions", "nonbonded"} {
		if !strings.Contains(out, term) {
			t.Errorf("output missing term %q:\n%s", term, out)
		}
	}
	if !strings.Contains(out, "atoms: 16") {
		t.Errorf("output missing atom count:\n%s", out)
	}
}

func TestBaseConfig(t *testing.T) {
	for _, system := range []string{"dimer", "chain", "lj-fluid"} {
		cfg, err := baseConfig(system)
		if err != nil {
			t.Fatalf("baseConfig(%s): %v", system, err)
		}
		if cfg.System.Kind != system {
			t.Errorf("baseConfig(%s) kind = %s", system, cfg.System.Kind)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("baseConfig(%s) invalid: %v", system, err)
		}
	}

	if cfg, err := baseConfig(""); err != nil || cfg.System.Kind != "dimer" {
		t.Errorf("baseConfig(empty) = %+v, %v; want the dimer default", cfg, err)
	}

	if _, err := baseConfig("pendulum"); err == nil {
		t.Error("expected error for unknown system")
	}
}

// baseConfig hands out copies; mutating one must not leak into the
// shared preset table.
func TestBaseConfigCopiesPreset(t *testing.T) {
	a, err := baseConfig("chain")
	if err != nil {
		t.Fatalf("baseConfig: %v", err)
	}
	a.Run.Steps = 1

	b, err := baseConfig("chain")
	if err != nil {
		t.Fatalf("baseConfig: %v", err)
	}
	if b.Run.Steps == 1 {
		t.Error("preset mutated through shared pointer")
	}
}
