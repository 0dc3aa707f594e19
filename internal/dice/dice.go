// Package dice parses dice notation and rolls it through an injectable RNG
// provider.
//
// Supported notation: NdX, NdX+M, NdX-M, NdXkhK (keep highest K), NdXklK
// (keep lowest K), and chains of those joined by + and -, e.g.
// "2d20kh1+1d4+3". Advantage is expressed by callers as 2d20kh1 and
// disadvantage as 2d20kl1.
package dice

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/KirkDiggler/tta-core/internal/errors"
)

// MaxDice and MaxSides bound a single term. Anything outside [1, 1000] is
// rejected as bad input.
const (
	MaxDice  = 1000
	MaxSides = 1000
)

var termPattern = regexp.MustCompile(`^(\d+)d(\d+)(?:(kh|kl)(\d+))?$`)

// Result is the outcome of rolling a full notation string
type Result struct {
	// Notation is the canonical form of what was rolled
	Notation string `json:"notation"`
	// Rolls holds every die rolled, in roll order
	Rolls []int `json:"rolls"`
	// Kept holds the dice that counted toward the total when a keep
	// directive was present, nil otherwise
	Kept []int `json:"kept,omitempty"`
	// Modifier is the sum of all flat modifiers
	Modifier int `json:"modifier"`
	// Total is the final value
	Total int `json:"total"`
}

// term is one parsed component of a notation string
type term struct {
	count    int
	sides    int
	keep     int    // 0 means keep all
	keepMode string // "kh" or "kl"
	flat     int    // set when the term is a plain modifier
	isFlat   bool
	negated  bool
}

// Roller rolls parsed notation through a Provider
type Roller struct {
	provider Provider
}

// RollerConfig holds dependencies for a Roller
type RollerConfig struct {
	Provider Provider
}

// Validate ensures the config is complete
func (c *RollerConfig) Validate() error {
	if c == nil {
		return errors.BadInput("config is required")
	}
	if c.Provider == nil {
		return errors.BadInput("provider is required")
	}
	return nil
}

// NewRoller creates a Roller with the given provider
func NewRoller(cfg *RollerConfig) (*Roller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Roller{provider: cfg.Provider}, nil
}

// Roll rolls n dice with the given number of sides, no keep directive
func (r *Roller) Roll(n, sides int) ([]int, error) {
	if n < 1 || n > MaxDice {
		return nil, errors.BadInputf("dice count %d outside [1, %d]", n, MaxDice)
	}
	if sides < 1 || sides > MaxSides {
		return nil, errors.BadInputf("die size %d outside [1, %d]", sides, MaxSides)
	}
	return r.provider.Roll(n, sides), nil
}

// RollNotation parses and rolls a full notation string
func (r *Roller) RollNotation(notation string) (*Result, error) {
	terms, err := parse(notation)
	if err != nil {
		return nil, err
	}

	result := &Result{Notation: canonical(terms)}
	for _, t := range terms {
		if t.isFlat {
			mod := t.flat
			if t.negated {
				mod = -mod
			}
			result.Modifier += mod
			result.Total += mod
			continue
		}

		rolls := r.provider.Roll(t.count, t.sides)
		result.Rolls = append(result.Rolls, rolls...)

		counted := rolls
		if t.keep > 0 {
			counted = keepDice(rolls, t.keep, t.keepMode)
			result.Kept = append(result.Kept, counted...)
		}

		sum := 0
		for _, v := range counted {
			sum += v
		}
		if t.negated {
			sum = -sum
		}
		result.Total += sum
	}

	return result, nil
}

// keepDice returns the k highest or lowest dice, preserving roll order
func keepDice(rolls []int, k int, mode string) []int {
	sorted := make([]int, len(rolls))
	copy(sorted, rolls)
	if mode == "kh" {
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	} else {
		sort.Ints(sorted)
	}
	threshold := sorted[:k]

	// Pull kept values out of the original order
	budget := make(map[int]int)
	for _, v := range threshold {
		budget[v]++
	}
	kept := make([]int, 0, k)
	for _, v := range rolls {
		if budget[v] > 0 {
			budget[v]--
			kept = append(kept, v)
		}
	}
	return kept
}

// parse splits notation into signed terms
func parse(notation string) ([]term, error) {
	cleaned := strings.ToLower(strings.ReplaceAll(notation, " ", ""))
	if cleaned == "" {
		return nil, errors.BadInput("empty dice notation")
	}

	var terms []term
	negated := false
	start := 0
	for i := 0; i <= len(cleaned); i++ {
		if i < len(cleaned) && cleaned[i] != '+' && cleaned[i] != '-' {
			continue
		}
		token := cleaned[start:i]
		t, err := parseTerm(token, notation)
		if err != nil {
			return nil, err
		}
		t.negated = negated
		terms = append(terms, t)

		if i < len(cleaned) {
			negated = cleaned[i] == '-'
			start = i + 1
		}
	}
	return terms, nil
}

// parseTerm parses one token: a dice expression or a flat modifier
func parseTerm(token, original string) (term, error) {
	if token == "" {
		return term{}, errors.BadInputf("invalid dice notation: %q", original)
	}

	if flat, err := strconv.Atoi(token); err == nil {
		return term{flat: flat, isFlat: true}, nil
	}

	m := termPattern.FindStringSubmatch(token)
	if m == nil {
		return term{}, errors.BadInputf("invalid dice notation: %q", original)
	}

	count, _ := strconv.Atoi(m[1])
	sides, _ := strconv.Atoi(m[2])
	if count < 1 || count > MaxDice {
		return term{}, errors.BadInputf("dice count %d outside [1, %d] in %q", count, MaxDice, original)
	}
	if sides < 1 || sides > MaxSides {
		return term{}, errors.BadInputf("die size %d outside [1, %d] in %q", sides, MaxSides, original)
	}

	t := term{count: count, sides: sides}
	if m[3] != "" {
		keep, _ := strconv.Atoi(m[4])
		if keep < 1 || keep > count {
			return term{}, errors.BadInputf("keep count %d outside [1, %d] in %q", keep, count, original)
		}
		t.keep = keep
		t.keepMode = m[3]
	}
	return t, nil
}

// canonical rebuilds the normalized notation string from parsed terms
func canonical(terms []term) string {
	var b strings.Builder
	for i, t := range terms {
		if i > 0 || t.negated {
			if t.negated {
				b.WriteByte('-')
			} else {
				b.WriteByte('+')
			}
		}
		if t.isFlat {
			fmt.Fprintf(&b, "%d", t.flat)
			continue
		}
		fmt.Fprintf(&b, "%dd%d", t.count, t.sides)
		if t.keep > 0 {
			fmt.Fprintf(&b, "%s%d", t.keepMode, t.keep)
		}
	}
	return b.String()
}

// Parse validates notation without rolling it. Returns the canonical form.
func Parse(notation string) (string, error) {
	terms, err := parse(notation)
	if err != nil {
		return "", err
	}
	return canonical(terms), nil
}
