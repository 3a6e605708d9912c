package extract

import (
	"fmt"
	"regexp"
	"strings"

	apperr "InsiderSentinel/internal/errors"
)

var (
	rootOpenRe  = regexp.MustCompile(`(?i)<(?:[\w.-]+:)?ownershipDocument`)
	rootCloseRe = regexp.MustCompile(`(?i)</(?:[\w.-]+:)?ownershipDocument>`)
	xmlDeclRe   = regexp.MustCompile(`(?i)<\?xml[^>]*\?>`)
)

// Sanitize cuts the ownership document out of a raw filing. Filings usually
// arrive wrapped in a multi-part text submission; only the span from the
// opening root tag to its closing tag is kept. A missing closing tag keeps
// everything to the end of input. A namespace prefix on the root tag is
// tolerated. XML declarations are removed and the
// result is trimmed. No other repair is attempted.
func Sanitize(raw string) (string, error) {
	open := rootOpenRe.FindStringIndex(raw)
	if open == nil {
		return "", fmt.Errorf("%w: no <ownershipDocument> element", apperr.ErrMalformedDocument)
	}
	start := open[0]
	end := len(raw)
	if loc := rootCloseRe.FindStringIndex(raw[start:]); loc != nil {
		end = start + loc[1]
	}

	doc := xmlDeclRe.ReplaceAllString(raw[start:end], "")
	return strings.TrimSpace(doc), nil
}
