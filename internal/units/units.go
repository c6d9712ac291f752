// Package units converts quantities between compatible measurement units and
// picks the canonical display unit for a quantity.
//
// Conversion groups are closed: mass (Gramos, Kilogramos), volume
// (Mililitros, Litros) and count (Unidades). There is no cross-group
// conversion; Convert falls back to returning the input unchanged, so callers
// must treat unconverted results defensively.
package units

import "strings"

// Canonical unit names. Stored records and generated orders always use the
// plural form; Normalize maps singular spellings onto these.
const (
	Gramos     = "Gramos"
	Kilogramos = "Kilogramos"
	Mililitros = "Mililitros"
	Litros     = "Litros"
	Unidades   = "Unidades"
)

type group int

const (
	groupNone group = iota
	groupMass
	groupVolume
	groupCount
)

type unitInfo struct {
	group  group
	factor float64 // multiplier to the group's base unit
}

var catalog = map[string]unitInfo{
	Gramos:     {groupMass, 1},
	Kilogramos: {groupMass, 1000},
	Mililitros: {groupVolume, 1},
	Litros:     {groupVolume, 1000},
	Unidades:   {groupCount, 1},
}

var aliases = map[string]string{
	"gramo":      Gramos,
	"gramos":     Gramos,
	"kilogramo":  Kilogramos,
	"kilogramos": Kilogramos,
	"mililitro":  Mililitros,
	"mililitros": Mililitros,
	"litro":      Litros,
	"litros":     Litros,
	"unidad":     Unidades,
	"unidades":   Unidades,
}

// promotions maps a unit to the larger unit it is promoted to once a
// quantity reaches the promotion threshold.
var promotions = map[string]string{
	Gramos:     Kilogramos,
	Mililitros: Litros,
}

// promotionThreshold is a display policy: quantities at or above 1000 base
// units read better in the larger unit.
const promotionThreshold = 1000

// Normalize maps a unit name onto its canonical plural form. Unknown units
// come back unchanged.
func Normalize(unit string) string {
	if canonical, ok := aliases[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return canonical
	}
	return unit
}

// Convertible reports whether Convert can actually translate between the two
// units: both known and in the same group. Callers comparing quantities
// should check this first instead of trusting a silent no-op conversion.
func Convertible(from, to string) bool {
	fromInfo, okFrom := catalog[Normalize(from)]
	toInfo, okTo := catalog[Normalize(to)]
	return okFrom && okTo && fromInfo.group == toInfo.group
}

// Convert converts qty from one unit to another. When either unit is unknown
// or the units belong to different groups, qty is returned unchanged.
func Convert(qty float64, from, to string) float64 {
	fromInfo, okFrom := catalog[Normalize(from)]
	toInfo, okTo := catalog[Normalize(to)]
	if !okFrom || !okTo || fromInfo.group != toInfo.group {
		return qty
	}
	return qty * fromInfo.factor / toInfo.factor
}

// BestUnit picks the canonical display unit for qty: the larger unit of a
// promotable group once qty reaches 1000, the normalized input unit
// otherwise.
func BestUnit(qty float64, unit string) (float64, string) {
	canonical := Normalize(unit)
	larger, promotable := promotions[canonical]
	if !promotable || qty < promotionThreshold {
		return qty, canonical
	}
	return Convert(qty, canonical, larger), larger
}
