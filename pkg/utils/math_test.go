package utils

import "testing"

const floatEpsilon = 1e-6

func floatEquals(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < floatEpsilon
}

func TestRoundToLotSize(t *testing.T) {
	cases := []struct {
		volume, lotSize, want float64
	}{
		{0.123456, 0.001, 0.123},
		{0.1, 0, 0.1},
		{1.999, 0.5, 1.5},
	}
	for _, c := range cases {
		if got := RoundToLotSize(c.volume, c.lotSize); !floatEquals(got, c.want) {
			t.Errorf("RoundToLotSize(%v, %v) = %v, want %v", c.volume, c.lotSize, got, c.want)
		}
	}
}

func TestRoundToLotSizeUp(t *testing.T) {
	if got := RoundToLotSizeUp(0.1201, 0.01); !floatEquals(got, 0.13) {
		t.Errorf("got %v", got)
	}
}

func TestRoundToLotSizeNearest(t *testing.T) {
	if got := RoundToLotSizeNearest(0.126, 0.01); !floatEquals(got, 0.13) {
		t.Errorf("got %v", got)
	}
}

func TestCalculateSpread(t *testing.T) {
	cases := []struct {
		high, low, want float64
	}{
		{101, 100, 1.0},
		{100, 100, 0.0},
		{100, 0, 0},
		{100, -5, 0},
	}
	for _, c := range cases {
		if got := CalculateSpread(c.high, c.low); !floatEquals(got, c.want) {
			t.Errorf("CalculateSpread(%v, %v) = %v, want %v", c.high, c.low, got, c.want)
		}
	}
}

func TestCalculateSpreadFromPrices(t *testing.T) {
	if got := CalculateSpreadFromPrices(100, 101); !floatEquals(got, CalculateSpread(101, 100)) {
		t.Errorf("expected symmetric spread, got %v", got)
	}
}

func TestCalculateNetSpread(t *testing.T) {
	got := CalculateNetSpread(1.0, 0.0004, 0.0005)
	if !floatEquals(got, 0.82) {
		t.Errorf("CalculateNetSpread(1.0, 0.0004, 0.0005) = %v, want 0.82", got)
	}
}

func TestCalculateNetSpreadDirect(t *testing.T) {
	got := CalculateNetSpreadDirect(101, 100, 0.0004, 0.0005)
	want := CalculateNetSpread(CalculateSpread(101, 100), 0.0004, 0.0005)
	if !floatEquals(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCalculateWeightedAverage(t *testing.T) {
	values := []float64{100, 102, 104}
	weights := []float64{1, 2, 1}
	got := CalculateWeightedAverage(values, weights)
	want := (100*1 + 102*2 + 104*1) / 4.0
	if !floatEquals(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCalculateWeightedAverageEdgeCases(t *testing.T) {
	if got := CalculateWeightedAverage(nil, nil); got != 0 {
		t.Errorf("empty input should be 0, got %v", got)
	}
	if got := CalculateWeightedAverage([]float64{1, 2}, []float64{1}); got != 0 {
		t.Errorf("length mismatch should be 0, got %v", got)
	}
	if got := CalculateWeightedAverage([]float64{1, 2}, []float64{0, -1}); got != 0 {
		t.Errorf("all non-positive weights should be 0, got %v", got)
	}
	if got := CalculateWeightedAverage([]float64{1, 2}, []float64{-1, 1}); !floatEquals(got, 2) {
		t.Errorf("negative weight should be ignored, got %v", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("got %v", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("got %v", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("got %v", got)
	}
}
