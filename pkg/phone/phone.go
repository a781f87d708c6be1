package phone

import "strings"

// Kazakh mobile operator prefixes accepted for passenger contact numbers.
var operatorCodes = map[string]bool{
	"700": true, "701": true, "702": true, "705": true, "706": true,
	"707": true, "708": true, "747": true, "771": true, "775": true,
	"776": true, "777": true, "778": true,
}

// Normalize validates a Kazakh mobile number and returns it in canonical
// +7XXXXXXXXXX form. Accepts +7, 8 and bare 7 prefixes and ignores spaces,
// dashes and parentheses.
func Normalize(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch r {
		case ' ', '-', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	p := b.String()

	switch {
	case strings.HasPrefix(p, "+7"):
		p = p[2:]
	case strings.HasPrefix(p, "8"):
		p = p[1:]
	case strings.HasPrefix(p, "7") && len(p) == 11:
		p = p[1:]
	}

	if len(p) != 10 {
		return "", false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if !operatorCodes[p[:3]] {
		return "", false
	}

	return "+7" + p, true
}
