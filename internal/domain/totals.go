package domain

// EventTotals sums the cost lines of a repair event.
func EventTotals(works []RepairWork, parts []RepairPart) (workTotal, partsTotal, total float64) {
	for _, w := range works {
		workTotal += w.Cost
	}
	for _, p := range parts {
		partsTotal += p.TotalPrice
	}
	return workTotal, partsTotal, workTotal + partsTotal
}
