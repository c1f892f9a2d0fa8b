package scanner

import (
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

// ladderResult is the best-so-far record produced by walking two order
// book ladders against each other: the executable volume, its average
// prices, the realized profit figures, and the cumulative cost/revenue
// behind it. A zero-value ladderResult (executableVolume 0) means no
// prefix cleared the profit threshold.
type ladderResult struct {
	executableVolume float64
	avgBuyPrice      float64
	avgSellPrice     float64
	costQuote        float64
	revenueQuote     float64
	grossProfitPct   float64
	netProfitPct     float64
	feesQuote        float64
}

// walkLadder walks asks (ascending, the buy side) against bids
// (descending, the sell side), taking the smallest of the two resting
// volumes and the remaining volume cap at each step. Both ladders
// monotonically worsen the achievable average price as more volume is
// taken, but the net profit percent of a prefix is not necessarily
// maximal at the last profitable step, so the best net-profit prefix
// seen is tracked explicitly rather than read off the final step.
// Walking stops as soon as a prefix's net profit percent drops below
// minProfitPct, since every deeper prefix can only get worse from
// there, or once maxVolumeBase is reached.
// walkLadder never mutates asks/bids: the same venue's book is read
// again for every other ordered pair it participates in during a scan
// tick, so remaining depth at each level is tracked in local copies.
func walkLadder(asks, bids []models.PricePoint, maxVolumeBase, minProfitPct, buyFeePct, sellFeePct float64) ladderResult {
	var best ladderResult
	var found bool
	var costQuote, revenueQuote, volume float64

	ai, bi := 0, 0
	askRemaining, bidRemaining := 0.0, 0.0
	if len(asks) > 0 {
		askRemaining = asks[0].Volume
	}
	if len(bids) > 0 {
		bidRemaining = bids[0].Volume
	}

	for ai < len(asks) && bi < len(bids) && volume < maxVolumeBase {
		ask := asks[ai]
		bid := bids[bi]

		step := minFloat(askRemaining, bidRemaining, maxVolumeBase-volume)
		if step <= minExecutableVolume {
			break
		}

		volume += step
		costQuote += step * ask.Price
		revenueQuote += step * bid.Price

		avgBuy := costQuote / volume
		avgSell := revenueQuote / volume
		grossPct := utils.CalculateSpread(avgSell, avgBuy)
		fees := costQuote*buyFeePct/100 + revenueQuote*sellFeePct/100
		netPct := (revenueQuote - fees - costQuote) / costQuote * 100

		if netPct >= minProfitPct && (!found || netPct > best.netProfitPct) {
			best = ladderResult{
				executableVolume: volume,
				avgBuyPrice:      avgBuy,
				avgSellPrice:     avgSell,
				costQuote:        costQuote,
				revenueQuote:     revenueQuote,
				grossProfitPct:   grossPct,
				netProfitPct:     netPct,
				feesQuote:        fees,
			}
			found = true
		}
		if netPct < minProfitPct {
			break
		}

		askRemaining -= step
		bidRemaining -= step
		if askRemaining <= minExecutableVolume {
			ai++
			if ai < len(asks) {
				askRemaining = asks[ai].Volume
			}
		}
		if bidRemaining <= minExecutableVolume {
			bi++
			if bi < len(bids) {
				bidRemaining = bids[bi].Volume
			}
		}
	}

	return best
}

func minFloat(values ...float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
