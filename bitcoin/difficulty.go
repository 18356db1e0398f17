package bitcoin

import (
	"math/big"

	"github.com/pkg/errors"
)

var (
	MaxBits = uint32(0x1d00ffff) // Maximum value of the Bitcoin header bits field

	// maxTarget is the target corresponding to MaxBits, i.e. difficulty 1.0.
	maxTarget = compactToTarget(MaxBits)

	// ErrDifficultyOverflow is returned when a header's bits field decodes to
	// a zero or otherwise unusable target, making a difficulty ratio
	// undefined.
	ErrDifficultyOverflow = errors.New("difficulty overflow")
)

// compactToTarget expands a compact "bits" encoding (exponent in the top
// byte, coefficient in the bottom three) into its big integer target, with
// no maximum clamp. exp = bits>>24, coef = bits&0x00ffffff,
// target = coef * 256^(exp-3).
func compactToTarget(bits uint32) *big.Int {
	exp := int(bits >> 24)
	coef := big.NewInt(int64(bits & 0x00ffffff))

	shift := exp - 3
	if shift <= 0 {
		// Coefficient itself must be shifted right; values this small don't
		// occur in practice but are handled rather than rejected.
		if shift == 0 {
			return coef
		}
		return new(big.Int).Rsh(coef, uint(-shift*8))
	}

	multiplier := new(big.Int).Lsh(big.NewInt(1), uint(shift*8))
	return coef.Mul(coef, multiplier)
}

// Difficulty computes the human-readable difficulty ratio for a header's
// compact "bits" field: the ratio of the maximum possible target (bits ==
// MaxBits) to this header's target. A bits value whose coefficient is zero,
// or whose target is otherwise zero, has no defined ratio and returns
// ErrDifficultyOverflow.
func Difficulty(bits uint32) (float64, error) {
	target := compactToTarget(bits)
	if target.Sign() <= 0 {
		return 0, errors.Wrapf(ErrDifficultyOverflow, "bits 0x%08x", bits)
	}

	ratio := new(big.Rat).SetFrac(maxTarget, target)
	result, _ := ratio.Float64()
	return result, nil
}
