package collector

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"InsiderSentinel/internal/extract"
	"InsiderSentinel/internal/model"
)

const (
	otherRelationship            = "Other"
	otherUnspecifiedRelationship = "Other (Filer Specified)"
)

type relationshipRule struct {
	flag  string
	label func(root *xmlquery.Node) string
}

// relationshipRules are evaluated in order; every rule whose flag is set
// contributes its label.
var relationshipRules = []relationshipRule{
	{flag: "isDirector", label: fixedLabel("Director")},
	{flag: "isOfficer", label: fixedLabel("Officer")},
	{flag: "isTenPercentOwner", label: fixedLabel("10% Owner")},
	{flag: "isOther", label: otherLabel},
}

func fixedLabel(s string) func(*xmlquery.Node) string {
	return func(*xmlquery.Node) string { return s }
}

func otherLabel(root *xmlquery.Node) string {
	if text := extract.FirstText(root, "otherText"); text != "" {
		return text
	}
	return otherUnspecifiedRelationship
}

func flagSet(root *xmlquery.Node, flag string) bool {
	v := strings.ToLower(extract.Text(root, flag))
	return v == "1" || v == "true"
}

// relationship derives the filer's relationship to the issuer. An explicit
// title wins; otherwise the flag labels are joined, and "Other" is used when
// no flag is set.
func relationship(root *xmlquery.Node) string {
	if title := extract.FirstText(root, "rptOwnerTitle"); title != "" {
		return title
	}
	var labels []string
	for _, r := range relationshipRules {
		if flagSet(root, r.flag) {
			labels = append(labels, r.label(root))
		}
	}
	if len(labels) == 0 {
		return otherRelationship
	}
	return strings.Join(labels, ", ")
}

// metadata reads issuer and filer details. Each field takes the first
// non-empty occurrence; missing fields keep their placeholders.
func metadata(root *xmlquery.Node) model.FilingMetadata {
	meta := model.DefaultFilingMetadata()
	if v := extract.FirstText(root, "issuerName"); v != "" {
		meta.IssuerName = v
	}
	if v := extract.FirstText(root, "issuerTradingSymbol"); v != "" {
		meta.IssuerTicker = strings.ToUpper(v)
	}
	if v := extract.FirstText(root, "rptOwnerName"); v != "" {
		meta.FilerName = v
	}
	meta.Relationship = relationship(root)
	return meta
}
