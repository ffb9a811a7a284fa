package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Component is one primary constituent inside a compound name.
type Component struct {
	Letter       string
	Period       int // 0 long period, 1 diurnal, 2 semidiurnal
	Multiplicity int
}

// Primary returns the primary constituent name, e.g. "M2".
func (c Component) Primary() string {
	return fmt.Sprintf("%s%d", c.Letter, c.Period)
}

// Decomposition is the result of splitting a compound constituent name.
type Decomposition struct {
	Components []Component
	Diurnal    int
	// LongPeriod marks names that are passed through undecomposed.
	LongPeriod bool
}

// Letters that may stand for K are resolved as diurnal first.
//
//nolint:gochecknoglobals // Read-only tables.
var (
	diurnalLetters = map[string]bool{
		"SIGMA": true, "Q": true, "RHO": true, "O": true, "TAU": true, "CHI": true, "PI": true,
		"P": true, "PSI": true, "PHI": true, "J": true, "UPS": true, "THETA": true, "K": true,
	}
	semidiurnalLetters = map[string]bool{
		"EPS": true, "MU": true, "N": true, "NU": true, "GAMMA": true, "ALPHA": true, "M": true,
		"DELTA": true, "LAMBDA": true, "L": true, "T": true, "S": true, "R": true, "XI": true, "ETA": true,
	}
	greekLetters = []string{
		"ALPHA", "BETA", "GAMMA", "DELTA", "EPS", "ZETA", "ETA", "THETA", "LAMBDA", "MU",
		"NU", "XI", "PI", "RHO", "SIGMA", "TAU", "UPS", "PHI", "CHI", "PSI",
	}
	// Combinations listed in the UKHO table whose numbers or frequencies do not add up.
	nonDecomposable = map[string]bool{
		"3MS2": true, "3MS5": true, "MSP2": true, "4MS4": true, "4ML12": true, "2MNO6": true,
		"2MS3": true, "OO1": true, "3(SM)N2": true, "MPS2": true, "2MS5": true, "5MSN12": true,
		"MS3": true, "MS1": true,
		"NSK5": true, "3N2MS12": true, "M(KS)2": true, "2NKMS5": true, "4MSN8": true,
		"4M2SN10": true, "M(SK)2": true, "5MSN10": true,
	}
	abcNames       = map[string]bool{"M1B": true, "M1C": true, "M1A": true, "L2A": true, "L2B": true}
	longPeriodEnds = "MAFON"
)

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// DecomposeConstituent splits a compound name such as "2MS6" into its primaries
// and resolves multiplicity signs so that the species add up to the trailing order.
func DecomposeConstituent(name string) (Decomposition, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return Decomposition{}, fmt.Errorf("%w: empty name", ErrUnsupportedConstituent)
	}
	if nonDecomposable[name] {
		return Decomposition{}, fmt.Errorf("%w: %s", ErrConstituentCombination, name)
	}

	var diurnal int
	var combination string
	last := name[len(name)-1]
	switch {
	case abcNames[name]:
		diurnal = int(name[1] - '0')
		combination = name[:1]
	case len(name) > 2 && (name[0] == 'M' || name[0] == 'N') && (name[1] == 'A' || name[1] == 'B') && isDigit(name[2]):
		diurnal = int(name[2] - '0')
		combination = name[:1]
	case name == "SNU2":
		diurnal = 0
		combination = "SNU"
	case isDigit(last):
		if len(name) > 1 && isDigit(name[len(name)-2]) {
			diurnal = int(name[len(name)-2]-'0')*10 + int(last-'0')
			combination = name[:len(name)-2]
		} else {
			diurnal = int(last - '0')
			combination = name[:len(name)-1]
		}
	case strings.IndexByte(longPeriodEnds, last) >= 0:
		return Decomposition{
			Components: []Component{{Letter: name[:len(name)-1], Period: 0, Multiplicity: 1}},
			LongPeriod: true,
		}, nil
	default:
		return Decomposition{}, fmt.Errorf("%w: %s", ErrUnsupportedConstituent, name)
	}

	comps, err := parseCombination(combination)
	if err != nil {
		return Decomposition{}, fmt.Errorf("%w: %s", err, name)
	}
	if !fixPeriodsAndSigns(comps, diurnal) {
		return Decomposition{}, fmt.Errorf("%w: %s", ErrConstituentCombination, name)
	}
	return Decomposition{Components: comps, Diurnal: diurnal}, nil
}

func parseCombination(s string) ([]Component, error) {
	var comps []Component
	inBracket := false
	multiplicity := 1
	for len(s) > 0 {
		switch {
		case isDigit(s[0]):
			multiplicity = int(s[0] - '0')
			s = s[1:]
			continue
		case s[0] == '(':
			inBracket = true
			s = s[1:]
			continue
		case s[0] == ')':
			inBracket = false
			multiplicity = 1
			s = s[1:]
			continue
		}

		letter := ""
		for _, g := range greekLetters {
			if strings.HasPrefix(s, g) {
				letter = g
				break
			}
		}
		if letter == "" {
			if !unicode.IsLetter(rune(s[0])) {
				return nil, fmt.Errorf("%w: unexpected character %q", ErrUnsupportedConstituent, s[0])
			}
			letter = s[:1]
		}
		s = s[len(letter):]

		var period int
		switch {
		case diurnalLetters[letter]:
			period = 1
		case semidiurnalLetters[letter]:
			period = 2
		case letter == "Z":
			period = 0
		default:
			return nil, fmt.Errorf("%w: unexpected letter %q", ErrUnsupportedConstituent, letter)
		}
		comps = append(comps, Component{Letter: letter, Period: period, Multiplicity: multiplicity})
		if !inBracket {
			multiplicity = 1
		}
	}
	if len(comps) == 0 {
		return nil, ErrUnsupportedConstituent
	}
	return comps, nil
}

func fixPeriodsAndSigns(comps []Component, diurnal int) bool {
	if len(comps) == 1 {
		c := &comps[0]
		switch {
		case c.Period == 0 && diurnal == 0:
		case c.Period == 1:
			c.Multiplicity = diurnal
		case c.Period == 2 && diurnal%2 == 0:
			c.Multiplicity = diurnal / 2
		case c.Period == 2:
			c.Period = 1
			c.Multiplicity = diurnal
		default:
			return false
		}
		return true
	}

	if fixSigns(comps, diurnal) {
		return true
	}

	// Retry with all signs positive and the first K taken as semidiurnal.
	for k := range comps {
		if comps[k].Multiplicity < 0 {
			comps[k].Multiplicity = -comps[k].Multiplicity
		}
	}
	for k := range comps {
		if comps[k].Letter == "K" {
			comps[k].Period = 2
			return fixSigns(comps, diurnal)
		}
	}
	return false
}

func fixSigns(comps []Component, diurnal int) bool {
	if speciesSum(comps) == diurnal {
		return true
	}
	for k := len(comps) - 1; k > 0; k-- {
		comps[k].Multiplicity = -comps[k].Multiplicity
		if speciesSum(comps) == diurnal {
			return true
		}
	}
	return false
}

func speciesSum(comps []Component) int {
	sum := 0
	for _, c := range comps {
		sum += c.Period * c.Multiplicity
	}
	return sum
}
