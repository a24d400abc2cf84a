package minimize

import (
	"context"
	"math"
	"testing"

	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/setup"
)

func TestMinimizeStretchedDimer(t *testing.T) {
	cfg := *config.GetPreset("dimer", "stretched")

	s, err := setup.Build(&cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Free()

	res, err := Run(context.Background(), s.Ctx, s.Sys.ActiveMask(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The preset stretches the bond by 0.08 nm, so the starting energy
	// is 0.5 * 10000 * 0.08^2.
	if math.Abs(res.InitialEnergy-32.0) > 1e-6 {
		t.Errorf("initial energy = %v, want 32", res.InitialEnergy)
	}
	if !res.Converged {
		t.Fatalf("did not converge: %+v", res)
	}
	if res.FinalEnergy >= res.InitialEnergy {
		t.Errorf("energy did not decrease: %+v", res)
	}

	// At the default tolerance the residual strain is at most tol/k.
	x := s.Ctx.Positions()
	d := math.Abs(x[5] - x[2])
	if math.Abs(d-cfg.System.BondLength) > 1e-3 {
		t.Errorf("separation after minimize = %v, want %v", d, cfg.System.BondLength)
	}
}

func TestMinimizeHoldsFrozenAtoms(t *testing.T) {
	cfg := *config.GetPreset("chain", "pinned")

	s, err := setup.Build(&cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Free()

	before := s.Ctx.Positions()
	res, err := Run(context.Background(), s.Ctx, s.Sys.ActiveMask(), Options{MaxIterations: 50})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	after := s.Ctx.Positions()
	for _, idx := range cfg.System.FrozenAtoms {
		for k := 0; k < 3; k++ {
			if after[3*idx+k] != before[3*idx+k] {
				t.Errorf("frozen atom %d moved: %v -> %v",
					idx, before[3*idx:3*idx+3], after[3*idx:3*idx+3])
			}
		}
	}
	if res.FinalEnergy > res.InitialEnergy {
		t.Errorf("energy increased: %+v", res)
	}
}

// The descent has no random state, so two runs from the same start
// must land on bit-identical coordinates.
func TestMinimizeDeterministic(t *testing.T) {
	run := func() []float64 {
		cfg := *config.GetPreset("dimer", "stretched")
		s, err := setup.Build(&cfg)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		defer s.Free()
		if _, err := Run(context.Background(), s.Ctx, nil, Options{}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return s.Ctx.Positions()
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("positions differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestMinimizeHonorsContext(t *testing.T) {
	cfg := *config.GetPreset("dimer", "stretched")

	s, err := setup.Build(&cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Free()

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(cctx, s.Ctx, nil, Options{}); err == nil {
		t.Fatal("expected a context error")
	}
}

func TestMinimizeRejectsBadMask(t *testing.T) {
	cfg := *config.GetPreset("dimer", "stretched")

	s, err := setup.Build(&cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Free()

	if _, err := Run(context.Background(), s.Ctx, make([]bool, 5), Options{}); err == nil {
		t.Fatal("expected a mask length error")
	}
}
