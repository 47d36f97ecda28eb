package portfolio

import (
	"sort"
	"time"
)

// ReplayHistory reconstructs an approximate account-value series from
// the trade log, one point per trade, preceded by a baseline point one
// day before the first trade at the starting balance.
//
// The replay values open quantity at the average cost implied by the
// trades themselves, not at any later market price. This is a lossy
// approximation: mark-to-market moves between trades are invisible to
// it, because no price history is ever captured. Callers charting this
// series must treat it as an estimate, not an authoritative valuation.
func ReplayHistory(trades []Trade, startingCash float64) []ValuePoint {
	if len(trades) == 0 {
		return nil
	}

	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time.Before(ordered[j].Time) })

	type basis struct {
		qty     float64
		avgCost float64
	}
	open := make(map[string]*basis)

	points := make([]ValuePoint, 0, len(ordered)+1)
	points = append(points, ValuePoint{
		Time:  ordered[0].Time.AddDate(0, 0, -1),
		Value: startingCash,
	})

	cash := startingCash
	for _, t := range ordered {
		switch t.Side {
		case Buy:
			cash -= t.TotalValue
			b, ok := open[t.Ticker]
			if !ok {
				b = &basis{}
				open[t.Ticker] = b
			}
			newCost := b.qty*b.avgCost + t.TotalValue
			b.qty += t.Quantity
			if b.qty > 0 {
				b.avgCost = newCost / b.qty
			} else {
				b.avgCost = 0
			}
		case Sell:
			cash += t.TotalValue
			if b, ok := open[t.Ticker]; ok {
				b.qty -= t.Quantity
				if b.qty <= 0 {
					delete(open, t.Ticker)
				}
			}
		}

		var held float64
		for _, b := range open {
			held += b.qty * b.avgCost
		}
		points = append(points, ValuePoint{Time: t.Time, Value: cash + held})
	}

	return points
}

// FlatHistory is the series shown for an account with no trades yet: a
// flat daily line at the starting balance covering the last `days` days
// up to and including now.
func FlatHistory(startingCash float64, days int, now time.Time) []ValuePoint {
	points := make([]ValuePoint, 0, days+1)
	for i := days; i >= 0; i-- {
		points = append(points, ValuePoint{
			Time:  now.AddDate(0, 0, -i),
			Value: startingCash,
		})
	}
	return points
}
