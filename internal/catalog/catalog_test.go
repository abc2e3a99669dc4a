package catalog

import (
	"testing"

	"github.com/opsdeck/tacscope/pkg/geo"
	"github.com/opsdeck/tacscope/pkg/marker"
)

var testCenter = geo.Coordinate{Longitude: -121.519146, Latitude: 48.443526}

func TestCenter(t *testing.T) {
	c := New(testCenter, 0.1)
	if c.Center() != testCenter {
		t.Errorf("Center() = %+v, expected %+v", c.Center(), testCenter)
	}
}

func TestNewStatics(t *testing.T) {
	c := New(testCenter, 0.1)

	statics := c.Statics()
	if len(statics) != 4 {
		t.Fatalf("expected 4 statics, got %d", len(statics))
	}

	byID := make(map[string]marker.Entity)
	for _, s := range statics {
		byID[s.ID] = s
	}

	r1, ok := byID["r1"]
	if !ok {
		t.Fatal("missing static r1")
	}
	if r1.Coordinates != testCenter {
		t.Errorf("r1 at %+v, expected theater center %+v", r1.Coordinates, testCenter)
	}
	if r1.Data.Disposition != marker.DispositionFriendly {
		t.Errorf("r1 disposition = %q, expected friendly", r1.Data.Disposition)
	}

	j1, ok := byID["j1"]
	if !ok {
		t.Fatal("missing static j1")
	}
	if j1.Data.Disposition != marker.DispositionHostile {
		t.Errorf("j1 disposition = %q, expected hostile", j1.Data.Disposition)
	}
	if !j1.Data.CanChangeDisposition {
		t.Error("j1 should be classifiable")
	}

	t4, ok := byID["t4"]
	if !ok {
		t.Fatal("missing static t4")
	}
	if t4.Data.TankStatus == nil {
		t.Fatal("t4 should carry tank diagnostics")
	}
	if t4.Data.TankStatus.Fuel != 25 {
		t.Errorf("t4 fuel = %d, expected 25", t4.Data.TankStatus.Fuel)
	}
	if !t4.Data.Issue {
		t.Error("t4 should flag an issue")
	}
}

func TestNewMovers(t *testing.T) {
	c := New(testCenter, 0.1)

	want := map[string]struct {
		typ      marker.EntityType
		hasIdle  bool
		isLooped bool
	}{
		"a7": {marker.TypeAircraft, true, false},
		"a8": {marker.TypeAircraft, true, false},
		"a9": {marker.TypeAircraft, true, false},
		"d6": {marker.TypeDrone, false, true},
		"d7": {marker.TypeDrone, false, true},
		"d8": {marker.TypeDrone, false, true},
	}

	movers := c.Movers()
	if len(movers) != len(want) {
		t.Fatalf("expected %d movers, got %d", len(want), len(movers))
	}

	for _, m := range movers {
		w, ok := want[m.ID]
		if !ok {
			t.Errorf("unexpected mover %q", m.ID)
			continue
		}
		if m.Data.Type != w.typ {
			t.Errorf("%s type = %q, expected %q", m.ID, m.Data.Type, w.typ)
		}
		if m.Trajectory.Len() == 0 {
			t.Errorf("%s has empty trajectory", m.ID)
		}
		if w.hasIdle && m.Trajectory.At(0) != nil {
			t.Errorf("%s should start with idle padding", m.ID)
		}
		if !w.hasIdle && m.Trajectory.At(0) == nil {
			t.Errorf("%s should start moving immediately", m.ID)
		}
		if w.isLooped {
			first := m.Trajectory.At(0)
			last := m.Trajectory.At(m.Trajectory.Len() - 1)
			// Closed patrol: the final sample lands back at (or within one
			// step of) the first waypoint
			if first == nil || last == nil {
				t.Fatalf("%s patrol produced nil samples", m.ID)
			}
			if geo.DistanceMiles(*first, *last) > 1.0 {
				t.Errorf("%s patrol does not close its loop: %.2f miles between ends",
					m.ID, geo.DistanceMiles(*first, *last))
			}
		}
	}
}

func TestJetsStaggered(t *testing.T) {
	// With a 0.1s sample interval, idle seconds of 2/3/5 become 20/30/50
	// leading nil slots.
	c := New(testCenter, 0.1)

	idle := map[string]int{"a7": 20, "a8": 30, "a9": 50}
	for id, want := range idle {
		m, ok := c.MoverByID(id)
		if !ok {
			t.Fatalf("missing mover %q", id)
		}
		got := 0
		for i := 0; i < m.Trajectory.Len(); i++ {
			if m.Trajectory.At(i) != nil {
				break
			}
			got++
		}
		if got != want {
			t.Errorf("%s idle slots = %d, expected %d", id, got, want)
		}
	}
}

func TestMoverByID(t *testing.T) {
	c := New(testCenter, 0.1)

	if _, ok := c.MoverByID("a7"); !ok {
		t.Error("a7 should resolve")
	}
	if _, ok := c.MoverByID("r1"); ok {
		t.Error("r1 is a static, not a mover")
	}
	if _, ok := c.MoverByID("zz"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestSeedDispositions(t *testing.T) {
	c := New(testCenter, 0.1)

	seed := c.SeedDispositions()

	want := map[string]marker.Disposition{
		"j1": marker.DispositionHostile,
		"d6": marker.DispositionUnknown,
		"d7": marker.DispositionUnknown,
		"d8": marker.DispositionUnknown,
		"a9": marker.DispositionUnknown,
	}
	if len(seed) != len(want) {
		t.Fatalf("seed has %d slots, expected %d: %v", len(seed), len(want), seed)
	}
	for id, d := range want {
		got, ok := seed[id]
		if !ok {
			t.Errorf("missing seed slot for %q", id)
			continue
		}
		if got != d {
			t.Errorf("seed[%s] = %q, expected %q", id, got, d)
		}
	}

	// Each call returns an independent map
	seed["j1"] = marker.DispositionFriendly
	if c.SeedDispositions()["j1"] != marker.DispositionHostile {
		t.Error("SeedDispositions should return a fresh map per call")
	}
}
