package contract

import (
	"math/big"
	"strings"
)

// maxUint256 is 2^256 - 1.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseInteger parses a decimal form value into a uint256-compatible integer.
// Surrounding whitespace and a leading '+' are accepted. Anything else that is not a
// base-10 number in [0, 2^256-1] yields an *ArgumentInvalidError naming field.
func ParseInteger(field, value string) (*big.Int, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return nil, &ArgumentInvalidError{Field: field, Value: value}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, &ArgumentInvalidError{Field: field, Value: value}
		}
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Cmp(maxUint256) > 0 {
		return nil, &ArgumentInvalidError{Field: field, Value: value}
	}
	return n, nil
}

func checkUint(field string, v *big.Int) error {
	if v == nil {
		return &ArgumentInvalidError{Field: field}
	}
	if v.Sign() < 0 || v.Cmp(maxUint256) > 0 {
		return &ArgumentInvalidError{Field: field, Value: v.String()}
	}
	return nil
}
