package canonical

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pictographRanges covers emoji, pictographs, dingbats and the joiners and
// selectors used to compose them.
var pictographRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1}, // zero width joiner
		{Lo: 0x2190, Hi: 0x21ff, Stride: 1}, // arrows
		{Lo: 0x2300, Hi: 0x23ff, Stride: 1}, // misc technical
		{Lo: 0x2460, Hi: 0x24ff, Stride: 1}, // enclosed alphanumerics
		{Lo: 0x25a0, Hi: 0x27bf, Stride: 1}, // shapes, misc symbols, dingbats
		{Lo: 0x2900, Hi: 0x297f, Stride: 1}, // supplemental arrows-b
		{Lo: 0x2b00, Hi: 0x2bff, Stride: 1}, // misc symbols and arrows
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3299, Stride: 1},
		{Lo: 0xfe00, Hi: 0xfe0f, Stride: 1}, // variation selectors
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1}, // mahjong through symbols and pictographs extended-a
		{Lo: 0x1fc00, Hi: 0x1fffd, Stride: 1},
		{Lo: 0xe0020, Hi: 0xe007f, Stride: 1}, // tag characters in flag sequences
	},
}

var decomposeAndStripPictographs = transform.Chain(norm.NFD, runes.Remove(runes.In(pictographRanges)))

// unitTokens are quantity units dropped from the end of a name.
var unitTokens = map[string]struct{}{
	"pc":  {},
	"pcs": {},
}

// Normalize maps a raw name to the key used for exact lookups and similarity
// scoring. It lowercases, decomposes accents, drops pictographs and anything
// outside [a-z0-9] and whitespace, removes standalone numbers and trailing
// "pc"/"pcs" unit words, and collapses whitespace.
//
// ok is false when raw is empty or nothing survives normalization.
// Normalize is idempotent.
func Normalize(raw string) (key string, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	decomposed, _, err := transform.String(decomposeAndStripPictographs, strings.ToLower(raw))
	if err != nil {
		decomposed = strings.ToLower(raw)
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, tok := range tokens {
		if isNumeric(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	for len(kept) > 0 {
		if _, unit := unitTokens[kept[len(kept)-1]]; !unit {
			break
		}
		kept = kept[:len(kept)-1]
	}

	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

func isNumeric(tok string) bool {
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return tok != ""
}
