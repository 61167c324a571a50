package geo

import "testing"

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineKmSmallStep(t *testing.T) {
	// 0.01 degree step near 10N is roughly 1.56 km
	d := HaversineKm(10.0, 20.0, 10.01, 20.01)
	if d < 1.5 || d > 1.65 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineKmSamePoint(t *testing.T) {
	if d := HaversineKm(-8.65, 115.21, -8.65, 115.21); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}
