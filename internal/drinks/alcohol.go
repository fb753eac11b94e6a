package drinks

// EthanolDensity is grams per millilitre.
const EthanolDensity = 0.789

var alcoholByVolume = map[Type]float64{
	Beer:     0.05,
	Wine:     0.12,
	Cocktail: 0.15,
	Shot:     0.40,
}

// AlcoholPercent returns the assumed ABV fraction for t, or 0 for an unknown type.
func AlcoholPercent(t Type) float64 {
	return alcoholByVolume[t]
}

// CalculateAlcohol converts a drink into grams of ethanol:
// volume (ml) x ABV x density (g/ml). The result is not rounded.
func CalculateAlcohol(t Type, volumeML int) float64 {
	return float64(volumeML) * alcoholByVolume[t] * EthanolDensity
}
