package msx

// Variable codes bind a name appearing in a reaction/formula/term
// equation to a resolvable slot. A code packs a kind tag and an index
// so the runtime Context can dispatch without a second name lookup.
type varKind int

const (
	varSpecies varKind = iota + 1
	varTerm
	varConstant
	varParameter
	varReserved
)

const varKindShift = 1_000_000

func packCode(kind varKind, index int) int {
	return int(kind)*varKindShift + index
}

func unpackCode(code int) (varKind, int) {
	return varKind(code / varKindShift), code % varKindShift
}

// Reserved hydraulic/time variable indices, valid only when packed with
// varReserved.
const (
	reservedQ varKind = iota // flow
	reservedL
	reservedD
	reservedRe
	reservedUs
	reservedFf
	reservedAv
	reservedT
)

var reservedNames = map[string]varKind{
	"Q":  reservedQ,
	"L":  reservedL,
	"D":  reservedD,
	"Re": reservedRe,
	"Us": reservedUs,
	"Ff": reservedFf,
	"Av": reservedAv,
	"T":  reservedT,
}
