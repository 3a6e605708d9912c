// Package extract holds the namespace-tolerant lookups used to read
// ownership filings, and the sanitizer that cuts the XML payload out of its
// text container.
package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/shopspring/decimal"

	apperr "InsiderSentinel/internal/errors"
)

// valueTag is the leaf every numeric or dated field is wrapped in.
const valueTag = "value"

// ParseTree builds an element tree from sanitized XML.
func ParseTree(doc string) (*xmlquery.Node, error) {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrParseFailed, err)
	}
	return root, nil
}

// QualifiedName returns the tag of n as {namespace}local, or just local when
// the element is unqualified.
func QualifiedName(n *xmlquery.Node) string {
	if n.NamespaceURI == "" {
		return n.Data
	}
	return "{" + n.NamespaceURI + "}" + n.Data
}

// FindBySuffix returns the first element, in depth-first document order and
// starting with node itself, whose qualified name ends with suffix.
func FindBySuffix(node *xmlquery.Node, suffix string) *xmlquery.Node {
	return findFirst(node, func(n *xmlquery.Node) bool {
		return strings.HasSuffix(QualifiedName(n), suffix)
	})
}

func findFirst(node *xmlquery.Node, match func(*xmlquery.Node) bool) *xmlquery.Node {
	if node == nil {
		return nil
	}
	if node.Type == xmlquery.ElementNode && match(node) {
		return node
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// OwnText returns the trimmed text held directly by n, ignoring text inside
// child elements.
func OwnText(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// Text returns the own text of the first element under node whose name ends
// with suffix, or "" when there is none.
func Text(node *xmlquery.Node, suffix string) string {
	return OwnText(FindBySuffix(node, suffix))
}

// FirstText returns the own text of the first element under node whose name
// ends with suffix and whose text is non-empty. Empty matches are passed over.
func FirstText(node *xmlquery.Node, suffix string) string {
	return OwnText(findFirst(node, func(n *xmlquery.Node) bool {
		return strings.HasSuffix(QualifiedName(n), suffix) && OwnText(n) != ""
	}))
}

// NestedText locates the container matching containerSuffix and returns the
// text of the first nested value element that has any. It returns "" when
// either level is missing.
func NestedText(node *xmlquery.Node, containerSuffix string) string {
	container := FindBySuffix(node, containerSuffix)
	if container == nil {
		return ""
	}
	leaf := findFirst(container, func(n *xmlquery.Node) bool {
		return strings.HasSuffix(QualifiedName(n), valueTag) && OwnText(n) != ""
	})
	return OwnText(leaf)
}

// NestedNumber reads NestedText as a decimal, dropping thousands
// separators. A missing container or value yields 0 with no error; text
// that does not parse yields 0 and ErrFieldCoercionFailed.
func NestedNumber(node *xmlquery.Node, containerSuffix string) (float64, error) {
	raw := NestedText(node, containerSuffix)
	if raw == "" {
		return 0, nil
	}
	return ParseNumber(raw)
}

// NestedValue is NestedNumber with coercion failures folded into 0.
func NestedValue(node *xmlquery.Node, containerSuffix string) float64 {
	v, _ := NestedNumber(node, containerSuffix)
	return v
}

// ParseNumber parses a filing number such as "1,000" or " 25.50 ". Values
// outside the float64 range are coercion failures.
func ParseNumber(raw string) (float64, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", apperr.ErrFieldCoercionFailed, raw, err)
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %q: out of range", apperr.ErrFieldCoercionFailed, raw)
	}
	return f, nil
}
