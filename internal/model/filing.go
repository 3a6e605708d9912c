package model

// FilingMetadata holds the issuer and reporting-owner details of one filing.
// It only lives for the duration of a single parse.
type FilingMetadata struct {
	IssuerName   string
	IssuerTicker string
	FilerName    string
	Relationship string
}

// DefaultFilingMetadata returns metadata with every field at its placeholder.
func DefaultFilingMetadata() FilingMetadata {
	return FilingMetadata{
		IssuerName:   Unknown,
		IssuerTicker: NotAvailable,
		FilerName:    Unknown,
		Relationship: NotAvailable,
	}
}
