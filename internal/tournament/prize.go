package tournament

// scaledAmount shrinks the prize pool to the tournament's fill ratio,
// rounding to the nearest cent. A full (or never-joined) tournament keeps the
// configured pool unchanged.
func scaledAmount(amountCents int64, filled, maxSlots int) int64 {
	if maxSlots <= 0 || filled <= 0 || filled >= maxSlots {
		return amountCents
	}
	return (amountCents*int64(filled) + int64(maxSlots)/2) / int64(maxSlots)
}
