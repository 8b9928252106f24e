// Package sanitizer rewrites untrusted message text before it reaches a
// line-oriented log sink, using bitwise filter flags paired with transforms.
package sanitizer

import (
	"encoding/hex"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Filter flags for character matching
const (
	FilterNonPrintable uint64 = 1 << iota // Runes strconv.IsPrint rejects
	FilterControl                         // unicode.IsControl
	FilterNewline                         // '\n' and '\r' only
)

// Transform flags for character transformation
const (
	TransformStrip     uint64 = 1 << iota // Drop the rune
	TransformHexEncode                    // Replace with "<xx..>" of its UTF-8 bytes
	TransformSpace                        // Replace with a single space
)

// PolicyPreset names a pre-configured rule set
type PolicyPreset string

const (
	PolicyRaw    PolicyPreset = "raw"    // passthrough
	PolicyTxt    PolicyPreset = "txt"    // hex-encode anything non-printable
	PolicyStrict PolicyPreset = "strict" // newlines become spaces, other controls are stripped
)

type rule struct {
	filter    uint64
	transform uint64
}

var policyRules = map[PolicyPreset][]rule{
	PolicyRaw: {},
	PolicyTxt: {{filter: FilterNonPrintable, transform: TransformHexEncode}},
	PolicyStrict: {
		{filter: FilterNewline, transform: TransformSpace},
		{filter: FilterControl | FilterNonPrintable, transform: TransformStrip},
	},
}

var filterCheckers = []struct {
	flag  uint64
	check func(rune) bool
}{
	{FilterNonPrintable, func(r rune) bool { return !strconv.IsPrint(r) }},
	{FilterControl, unicode.IsControl},
	{FilterNewline, func(r rune) bool { return r == '\n' || r == '\r' }},
}

// IsPolicy reports whether name is a known preset.
func IsPolicy(name string) bool {
	_, ok := policyRules[PolicyPreset(name)]
	return ok
}

// Sanitizer holds an ordered rule list. It keeps no scratch state, so one
// instance may be shared by concurrent writers.
type Sanitizer struct {
	rules []rule
}

// New creates a passthrough Sanitizer
func New() *Sanitizer {
	return &Sanitizer{}
}

// Rule appends a custom rule; the earliest matching rule wins
func (s *Sanitizer) Rule(filter uint64, transform uint64) *Sanitizer {
	s.rules = append(s.rules, rule{filter: filter, transform: transform})
	return s
}

// Policy appends the rules of a preset
func (s *Sanitizer) Policy(preset PolicyPreset) *Sanitizer {
	if rules, ok := policyRules[preset]; ok {
		s.rules = append(s.rules, rules...)
	}
	return s
}

// Sanitize returns data with all rules applied
func (s *Sanitizer) Sanitize(data string) string {
	return string(s.Append(nil, data))
}

// Append writes the sanitized form of data to dst and returns the extended buffer
func (s *Sanitizer) Append(dst []byte, data string) []byte {
	if len(s.rules) == 0 {
		return append(dst, data...)
	}

	for i, r := range data {
		if r == utf8.RuneError {
			// Invalid byte sequences are treated as single non-printable bytes
			if _, size := utf8.DecodeRuneInString(data[i:]); size == 1 {
				dst = s.apply(dst, r, data[i:i+1])
				continue
			}
		}
		dst = s.apply(dst, r, "")
	}
	return dst
}

// apply runs the first matching rule for r. raw carries the original bytes
// of an invalid sequence so hex encoding reports what was actually there.
func (s *Sanitizer) apply(dst []byte, r rune, raw string) []byte {
	for _, rl := range s.rules {
		if !matchesFilter(r, raw != "", rl.filter) {
			continue
		}
		switch {
		case rl.transform&TransformStrip != 0:
			return dst
		case rl.transform&TransformSpace != 0:
			return append(dst, ' ')
		case rl.transform&TransformHexEncode != 0:
			dst = append(dst, '<')
			if raw != "" {
				dst = hex.AppendEncode(dst, []byte(raw))
			} else {
				var runeBytes [utf8.UTFMax]byte
				n := utf8.EncodeRune(runeBytes[:], r)
				dst = hex.AppendEncode(dst, runeBytes[:n])
			}
			return append(dst, '>')
		}
	}
	if raw != "" {
		return append(dst, raw...)
	}
	return utf8.AppendRune(dst, r)
}

// matchesFilter reports whether r falls under filterMask. An invalid byte
// decodes to U+FFFD, which is printable, so it is matched explicitly as both
// non-printable and control.
func matchesFilter(r rune, invalid bool, filterMask uint64) bool {
	if invalid && filterMask&(FilterNonPrintable|FilterControl) != 0 {
		return true
	}
	for _, fc := range filterCheckers {
		if filterMask&fc.flag != 0 && fc.check(r) {
			return true
		}
	}
	return false
}
