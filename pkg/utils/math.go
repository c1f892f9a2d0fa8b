package utils

// math.go - numeric helpers for spreads, averages and lot sizes.
//
// RoundToLotSize rounds down to the venue's lot size, CalculateSpread
// gives the gross percent figure the ladder-walk scanner reports,
// CalculateNetSpread subtracts flat round-trip fees from a gross spread,
// and CalculateWeightedAverage is a volume-weighted average. The scanner
// calls only CalculateSpread; its running averages and fee-weighted net
// percent are computed inline in internal/scanner/ladder.go.

import "math"

// RoundToLotSize rounds volume down to the nearest multiple of lotSize.
// A non-positive lotSize disables rounding.
func RoundToLotSize(volume, lotSize float64) float64 {
	if lotSize <= 0 {
		return volume
	}
	return math.Floor(volume/lotSize) * lotSize
}

// RoundToLotSizeUp rounds volume up to the nearest multiple of lotSize.
func RoundToLotSizeUp(volume, lotSize float64) float64 {
	if lotSize <= 0 {
		return volume
	}
	return math.Ceil(volume/lotSize) * lotSize
}

// RoundToLotSizeNearest rounds volume to the nearest multiple of lotSize.
func RoundToLotSizeNearest(volume, lotSize float64) float64 {
	if lotSize <= 0 {
		return volume
	}
	return math.Round(volume/lotSize) * lotSize
}

// CalculateSpread returns the percent spread of priceHigh over priceLow:
// (priceHigh - priceLow) / priceLow * 100. Returns 0 for a non-positive
// priceLow.
func CalculateSpread(priceHigh, priceLow float64) float64 {
	if priceLow <= 0 {
		return 0
	}
	return (priceHigh - priceLow) / priceLow * 100
}

// CalculateSpreadFromPrices is the symmetric form of CalculateSpread: it
// spreads the larger price over the smaller regardless of argument order.
func CalculateSpreadFromPrices(priceA, priceB float64) float64 {
	if priceA >= priceB {
		return CalculateSpread(priceA, priceB)
	}
	return CalculateSpread(priceB, priceA)
}

// CalculateNetSpread subtracts round-trip taker fees (as fractions, e.g.
// 0.001 for 0.1%) from a gross spread percentage already expressed in
// percent: spreadPct - 2*(feeA+feeB)*100.
func CalculateNetSpread(spreadPct, feeA, feeB float64) float64 {
	return spreadPct - 2*(feeA+feeB)*100
}

// CalculateNetSpreadDirect composes CalculateSpread and CalculateNetSpread
// directly from the two prices.
func CalculateNetSpreadDirect(priceHigh, priceLow, feeA, feeB float64) float64 {
	return CalculateNetSpread(CalculateSpread(priceHigh, priceLow), feeA, feeB)
}

// CalculateWeightedAverage returns the volume-weighted average of values.
// Negative weights are ignored. Returns 0 if the slices mismatch in
// length, are empty, or all weights are non-positive.
func CalculateWeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	var sumWeighted, sumWeights float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		sumWeighted += values[i] * w
		sumWeights += w
	}
	if sumWeights <= 0 {
		return 0
	}
	return sumWeighted / sumWeights
}

// Clamp restricts value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
