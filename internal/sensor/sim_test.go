package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestWalker_Deterministic(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	a := NewWalker(ProfileSteady, 50, 42)
	b := NewWalker(ProfileSteady, 50, 42)

	var seqA, seqB []Reading
	for i := 0; i < 20; i++ {
		at := base.Add(time.Duration(i) * 20 * time.Millisecond)
		seqA = append(seqA, a.Next(at))
		seqB = append(seqB, b.Next(at))
	}

	if diff := cmp.Diff(seqA, seqB); diff != "" {
		t.Errorf("same seed produced different sequences (-a +b):\n%s", diff)
	}
}

func TestWalker_SeedChangesSequence(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	a := NewWalker(ProfileSteady, 50, 1)
	b := NewWalker(ProfileSteady, 50, 2)

	same := true
	for i := 0; i < 10; i++ {
		at := base.Add(time.Duration(i) * 20 * time.Millisecond)
		if a.Next(at).Accel != b.Next(at).Accel {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical accel sequences")
	}
}

func TestWalker_ProducesGaitOscillation(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	w := NewWalker(ProfileSteady, 50, 7)

	// Over one second of samples the vertical axis should swing both ways.
	var minZ, maxZ float64
	for i := 0; i < 50; i++ {
		r := w.Next(base.Add(time.Duration(i) * 20 * time.Millisecond))
		if r.Accel.Z < minZ {
			minZ = r.Accel.Z
		}
		if r.Accel.Z > maxZ {
			maxZ = r.Accel.Z
		}
	}

	if maxZ < 0.5 || minZ > -0.5 {
		t.Errorf("vertical accel range [%v, %v] too flat for a gait signal", minZ, maxZ)
	}
}

func TestValidProfiles(t *testing.T) {
	want := map[string]bool{
		ProfileSteady:    true,
		ProfileDegrading: true,
		ProfileStumble:   true,
	}
	if len(ValidProfiles) != len(want) {
		t.Fatalf("ValidProfiles has %d entries, want %d", len(ValidProfiles), len(want))
	}
	for _, p := range ValidProfiles {
		if !want[p] {
			t.Errorf("unexpected profile %q", p)
		}
	}
}

func TestSimSource_DeliversReadings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewSimSource(ProfileSteady, 200, 42, nil)

	runErr := make(chan error, 1)
	go func() { runErr <- src.Run(ctx) }()

	var got []Reading
	deadline := time.After(2 * time.Second)
	for len(got) < 5 {
		select {
		case r := <-src.Readings():
			got = append(got, r)
		case <-deadline:
			t.Fatalf("timed out after %d readings", len(got))
		}
	}

	cancel()
	select {
	case err := <-runErr:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// The delivery channel closes once Run returns.
	for {
		if _, ok := <-src.Readings(); !ok {
			break
		}
	}

	for i, r := range got {
		if r.Timestamp.IsZero() {
			t.Errorf("reading %d has zero timestamp", i)
		}
	}
}
