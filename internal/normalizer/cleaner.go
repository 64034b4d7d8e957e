package normalizer

import "strings"

// Cleaner normalizes cells that may hold a comma-separated list of numbers.
type Cleaner struct {
	parser *Parser
}

// NewCleaner creates a list cleaner around parser.
func NewCleaner(parser *Parser) *Cleaner {
	return &Cleaner{parser: parser}
}

// Numbers returns every surviving number in cell, in order.
func (c *Cleaner) Numbers(cell string) []Phone {
	var out []Phone

	for _, piece := range strings.Split(cell, ",") {
		if phone, ok := c.parser.Parse(piece); ok {
			out = append(out, phone)
		}
	}

	return out
}

// Clean returns the surviving numbers joined with ", ", or false when none survive.
func (c *Cleaner) Clean(cell string) (string, bool) {
	numbers := c.Numbers(cell)
	if len(numbers) == 0 {
		return "", false
	}

	rendered := make([]string, len(numbers))
	for i, n := range numbers {
		rendered[i] = n.String()
	}

	return strings.Join(rendered, ", "), true
}

// AreaCode returns the area code of the first usable number in cell.
func (c *Cleaner) AreaCode(cell string) (string, bool) {
	numbers := c.Numbers(cell)
	if len(numbers) == 0 {
		return "", false
	}

	return numbers[0].AreaCode(), true
}
