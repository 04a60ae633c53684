package workout

// BarWeightKg is the weight of a standard Olympic barbell.
const BarWeightKg = 20

// plateSizesKg are the available plate denominations, heaviest first for the
// greedy breakdown.
var plateSizesKg = []float64{25, 20, 15, 10, 5, 2.5, 1.25} //nolint:gochecknoglobals // immutable lookup table.

// PlatesPerSide breaks a target barbell weight into the plates to load on each
// side of the bar, heaviest first. Weights at or below the bare bar need no
// plates.
func PlatesPerSide(targetKg float64) []float64 {
	perSide := (targetKg - BarWeightKg) / 2 //nolint:mnd // two sleeves.
	if perSide <= 0 {
		return nil
	}

	var plates []float64
	remaining := perSide
	for _, size := range plateSizesKg {
		for remaining >= size {
			plates = append(plates, size)
			remaining -= size
		}
	}
	return plates
}
