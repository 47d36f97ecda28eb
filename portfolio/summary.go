package portfolio

// ComputeSummary derives the account statistics from cash and the open
// positions. Percent and dollar gain are both computed from the single
// total-value figure, never from separately sampled inputs, so the
// triple is internally consistent by construction. The function is pure
// and idempotent.
func ComputeSummary(cash float64, positions []Position) Summary {
	total := cash
	for _, p := range positions {
		total += p.Value()
	}
	return summarize(total)
}

func summarize(total float64) Summary {
	return Summary{
		TotalValue:   total,
		PercentGain:  (total - StartingCash) / StartingCash * 100,
		AmountGained: total - StartingCash,
	}
}
