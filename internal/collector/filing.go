package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	apperr "InsiderSentinel/internal/errors"
	"InsiderSentinel/internal/extract"
	"InsiderSentinel/internal/model"
)

const (
	nonDerivativeXPath = "//*[local-name()='nonDerivativeTransaction']"
	derivativeXPath    = "//*[local-name()='derivativeTransaction']"
)

// FilingResult is everything one filing produced. Err is nil when the
// filing was processed; otherwise it is the StageError that stopped it and
// Trades is empty.
type FilingResult struct {
	URL          string
	Metadata     model.FilingMetadata
	Trades       []model.Trade
	Transactions int // transaction elements inspected
	Defaulted    int // fields replaced by their default under the policy
	Err          error
}

// FilingParser turns one filing into trades. It never fails past its own
// boundary: every problem ends up in FilingResult.Err.
type FilingParser struct {
	fetcher Fetcher
	rules   model.Rules
	policy  Policy
	timeout time.Duration
	logger  *zap.Logger
}

// NewFilingParser creates a parser using DefaultPolicy.
func NewFilingParser(fetcher Fetcher, rules model.Rules, timeout time.Duration, logger *zap.Logger) *FilingParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilingParser{
		fetcher: fetcher,
		rules:   rules,
		policy:  DefaultPolicy(),
		timeout: timeout,
		logger:  logger.Named("filing"),
	}
}

// WithPolicy returns a copy of p that uses policy.
func (p *FilingParser) WithPolicy(policy Policy) *FilingParser {
	cp := *p
	cp.policy = policy
	return &cp
}

// Parse downloads and parses the filing at url.
func (p *FilingParser) Parse(ctx context.Context, url string) FilingResult {
	raw, err := p.fetcher.Fetch(ctx, url, p.timeout)
	if err != nil {
		return p.fail(FilingResult{URL: url, Metadata: model.DefaultFilingMetadata()},
			apperr.NewStageError(apperr.StageFetch, apperr.ErrFilingFetchFailed, url, err))
	}
	return p.ParseDocument(url, raw)
}

// ParseDocument runs the sanitize, parse and extract stages on a filing
// already in memory.
func (p *FilingParser) ParseDocument(url string, raw []byte) FilingResult {
	res := FilingResult{URL: url, Metadata: model.DefaultFilingMetadata()}

	doc, err := extract.Sanitize(string(raw))
	if err != nil {
		return p.fail(res, apperr.NewStageError(apperr.StageSanitize, apperr.ErrMalformedDocument, url, err))
	}
	root, err := extract.ParseTree(doc)
	if err != nil {
		return p.fail(res, apperr.NewStageError(apperr.StageParse, apperr.ErrParseFailed, url, err))
	}

	res.Metadata = metadata(root)

	txs := xmlquery.Find(root, nonDerivativeXPath)
	txs = append(txs, xmlquery.Find(root, derivativeXPath)...)
	res.Transactions = len(txs)

	for _, tx := range txs {
		trade, keep, serr := p.transaction(tx, res.Metadata, url, &res.Defaulted)
		if serr != nil {
			return p.fail(res, serr)
		}
		if keep {
			res.Trades = append(res.Trades, trade)
		}
	}
	return res
}

// transaction extracts one trade. keep is false when the transaction is
// filtered out. A non-nil error means the policy asked to drop the filing.
func (p *FilingParser) transaction(tx *xmlquery.Node, meta model.FilingMetadata, url string, defaulted *int) (model.Trade, bool, *apperr.StageError) {
	code := strings.ToUpper(extract.FirstText(tx, "transactionCode"))
	if !p.rules.IsTargetCode(code) {
		return model.Trade{}, false, nil
	}
	date := extract.NestedText(tx, "transactionDate")
	if date == "" {
		date = model.NotAvailable
	}

	shares, serr := p.number(tx, "transactionShares", url, defaulted)
	if serr != nil {
		return model.Trade{}, false, serr
	}
	if shares == 0 {
		return model.Trade{}, false, nil
	}
	price, serr := p.number(tx, "transactionPricePerShare", url, defaulted)
	if serr != nil {
		return model.Trade{}, false, serr
	}
	if math.IsInf(shares*price, 0) {
		// Each factor is finite but the value is not; the price is the field
		// that gives way.
		err := fmt.Errorf("%w: value of %v shares at %v overflows", apperr.ErrFieldCoercionFailed, shares, price)
		if price, serr = p.coerce(url, "transactionPricePerShare", err, defaulted); serr != nil {
			return model.Trade{}, false, serr
		}
	}

	trade := model.NewTrade(meta, date, code, shares, price, p.rules)
	return trade, p.rules.Keep(trade), nil
}

func (p *FilingParser) number(tx *xmlquery.Node, container, url string, defaulted *int) (float64, *apperr.StageError) {
	v, err := extract.NestedNumber(tx, container)
	if err == nil {
		return v, nil
	}
	return p.coerce(url, container, err, defaulted)
}

// coerce applies the policy to a field that could not be read. Under
// DefaultField the field becomes 0; otherwise the filing is dropped.
func (p *FilingParser) coerce(url, field string, err error, defaulted *int) (float64, *apperr.StageError) {
	serr := apperr.NewStageError(apperr.StageExtract, apperr.ErrFieldCoercionFailed, url, err)
	if p.policy.ActionFor(serr) == SkipFiling {
		return 0, serr
	}
	*defaulted++
	p.logger.Debug("field defaulted", zap.String("url", url), zap.String("field", field), zap.Error(err))
	return 0, nil
}

func (p *FilingParser) fail(res FilingResult, serr *apperr.StageError) FilingResult {
	res.Trades = nil
	res.Err = serr
	p.logger.Warn("filing skipped",
		zap.String("url", res.URL),
		zap.String("stage", string(serr.Stage)),
		zap.String("kind", apperr.KindName(serr)),
		zap.Error(serr.Err))
	return res
}
