package contracts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cockroachdb/apd"
)

// etherDecimals is the number of wei digits in one ether.
const etherDecimals = 18

// ParseEther converts a decimal ether amount such as "1.5" or "2e-3" into
// wei. Negative amounts and amounts finer than one wei are rejected.
func ParseEther(s string) (*big.Int, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parsing ether amount '%s': %w", s, err)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("ether amount '%s' is not finite", s)
	}
	if d.Negative && d.Coeff.Sign() != 0 {
		return nil, fmt.Errorf("ether amount '%s' is negative", s)
	}

	wei := new(big.Int).Set(&d.Coeff)
	exp := int64(d.Exponent) + etherDecimals
	if exp >= 0 {
		return wei.Mul(wei, pow10(exp)), nil
	}
	var rem big.Int
	wei.QuoRem(wei, pow10(-exp), &rem)
	if rem.Sign() != 0 {
		return nil, fmt.Errorf("ether amount '%s' has more than %d decimals", s, etherDecimals)
	}
	return wei, nil
}

// FormatEther renders wei as a decimal ether amount without trailing zeros.
func FormatEther(wei *big.Int) string {
	text := apd.NewWithBigInt(wei, -etherDecimals).Text('f')
	if strings.Contains(text, ".") {
		text = strings.TrimRight(strings.TrimRight(text, "0"), ".")
	}
	return text
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
