package canonical

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

// trailingQuantity matches a quantity suffix such as "12 pcs", "x2", "(6pc)" or "- 10".
var trailingQuantity = regexp.MustCompile(`(?i)\s*[-(]?\s*(?:\bx\s*)?\d+\s*(?:pcs?|pieces?)?\.?\)?\s*$`)

var titleCaser = cases.Title(language.Und)

// DisplayName builds the canonical display name for a new entity.
// Categories are the title-cased tokens of the normalized key. Items keep the
// raw spelling with any trailing quantity stripped.
func DisplayName(kind entities.EntityKind, raw, key string) string {
	if kind == entities.KindCategory {
		tokens := strings.Fields(key)
		for i, tok := range tokens {
			tokens[i] = titleCaser.String(tok)
		}
		return strings.Join(tokens, " ")
	}

	name := strings.Join(strings.Fields(trailingQuantity.ReplaceAllString(raw, "")), " ")
	if name == "" {
		return strings.Join(strings.Fields(raw), " ")
	}
	return name
}
