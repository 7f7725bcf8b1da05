package validate

import (
	"fmt"
	"strings"
)

// VINChecker is a best-effort checksum routine for a well-formed,
// upper-cased 17-character VIN. A failed check only produces a warning.
type VINChecker interface {
	Name() string
	Valid(vin string) bool
}

// BasicVINChecker only rejects the letters I, O and Q
type BasicVINChecker struct{}

func (BasicVINChecker) Name() string { return "basic" }

func (BasicVINChecker) Valid(vin string) bool {
	return len(vin) == 17 && !strings.ContainsAny(vin, "IOQ")
}

// CheckDigitVINChecker verifies position 9 against the weighted mod-11
// check digit used for North American VINs. Vehicles from other markets
// frequently fail it.
type CheckDigitVINChecker struct{}

var vinWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

func (CheckDigitVINChecker) Name() string { return "check_digit" }

func (CheckDigitVINChecker) Valid(vin string) bool {
	if len(vin) != 17 {
		return false
	}
	sum := 0
	for i := 0; i < 17; i++ {
		val, ok := vinValue(vin[i])
		if !ok {
			return false
		}
		sum += val * vinWeights[i]
	}
	want := byte('0' + sum%11)
	if sum%11 == 10 {
		want = 'X'
	}
	return vin[8] == want
}

// vinValue transliterates one VIN character
func vinValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'H':
		return int(c-'A') + 1, true
	case c >= 'J' && c <= 'N':
		return int(c-'J') + 1, true
	case c == 'P':
		return 7, true
	case c == 'R':
		return 9, true
	case c >= 'S' && c <= 'Z':
		return int(c-'S') + 2, true
	}
	return 0, false
}

// VINCheckerByName resolves a configured checksum mode
func VINCheckerByName(name string) (VINChecker, error) {
	switch name {
	case "", "basic":
		return BasicVINChecker{}, nil
	case "check_digit":
		return CheckDigitVINChecker{}, nil
	}
	return nil, fmt.Errorf("unknown VIN checksum mode: %s", name)
}
