package billtext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

// Field names reported in BillFacts.Fields
const (
	FieldRateCode      = "rate_code"
	FieldBillingPeriod = "billing_period"
	FieldTotalKwh      = "total_kwh"
	FieldMaxDemandKw   = "max_demand_kw"
	FieldAmountDue     = "amount_due"
)

var (
	rateExpr      = regexp.MustCompile(`(?i)\b(?:rate\s+schedule\s*[:#]?|(?:rate|schedule|tariff)\s*[:#])\s*([A-Z]{1,4}(?:-?[A-Z0-9]{1,4}){0,3})\b`)
	periodExpr    = regexp.MustCompile(`(?i)(?:billing|service)\s+period\s*[:]?\s*(\d{1,2}/\d{1,2}/\d{2,4})\s*(?:-|to|through)\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	totalKwhExpr  = regexp.MustCompile(`(?i)total\s+(?:usage|energy|kwh\s+used|electricity\s+used)?\s*[:]?\s*([\d,]+(?:\.\d+)?)\s*kwh`)
	usageKwhExpr  = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*kwh\s+(?:total|used)`)
	maxDemandExpr = regexp.MustCompile(`(?i)(?:max(?:imum)?|peak)\s+demand\s*[:]?\s*([\d,]+(?:\.\d+)?)\s*kw\b`)
	amountDueExpr = regexp.MustCompile(`(?i)(?:total\s+)?amount\s+due\s*[:]?\s*\$?\s*([\d,]+\.\d{2})`)
)

// Extractor pulls structured facts out of raw bill text
type Extractor struct {
	log *zap.Logger
}

// NewExtractor creates a new bill-text extractor
func NewExtractor(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

// Extract returns the facts found in text. domain.ErrNoBillText is returned for blank input;
// text that yields no facts returns an empty BillFacts and no error.
func (e *Extractor) Extract(text string) (*domain.BillFacts, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoBillText
	}
	facts := &domain.BillFacts{Fields: []string{}}

	if m := rateExpr.FindStringSubmatch(text); m != nil {
		facts.RateCode = strings.ToUpper(strings.TrimSpace(m[1]))
		facts.Fields = append(facts.Fields, FieldRateCode)
	}
	if m := periodExpr.FindStringSubmatch(text); m != nil {
		facts.BillingPeriod = m[1] + " - " + m[2]
		facts.Fields = append(facts.Fields, FieldBillingPeriod)
	}
	if v, ok := firstNumber(text, totalKwhExpr, usageKwhExpr); ok {
		facts.TotalKwh = &v
		facts.Fields = append(facts.Fields, FieldTotalKwh)
	}
	if v, ok := firstNumber(text, maxDemandExpr); ok {
		facts.MaxDemandKw = &v
		facts.Fields = append(facts.Fields, FieldMaxDemandKw)
	}
	if m := amountDueExpr.FindStringSubmatch(text); m != nil {
		if amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
			facts.AmountDue = amount.StringFixed(2)
			facts.Fields = append(facts.Fields, FieldAmountDue)
		}
	}

	e.log.Debug("Bill text extracted", zap.Strings("fields", facts.Fields))
	return facts, nil
}

// FillProfile copies extracted facts into profile gaps and returns the names of the
// fields it filled. Values already present in the profile are never overwritten.
func FillProfile(profile *domain.CustomerProfile, facts *domain.BillFacts) []string {
	if profile == nil || facts == nil {
		return nil
	}
	var filled []string
	if profile.CurrentRate == "" && facts.RateCode != "" {
		profile.CurrentRate = facts.RateCode
		filled = append(filled, "current_rate")
	}
	if profile.Billing.MonthlyKwh == nil && len(profile.Billing.MonthlyKwhSeries()) == 0 && facts.TotalKwh != nil {
		v := *facts.TotalKwh
		profile.Billing.MonthlyKwh = &v
		filled = append(filled, "billing.monthly_kwh")
	}
	if profile.Billing.PeakKw == nil && profile.Billing.MaxBilledPeakKw() == nil && facts.MaxDemandKw != nil {
		v := *facts.MaxDemandKw
		profile.Billing.PeakKw = &v
		filled = append(filled, "billing.peak_kw")
	}
	return filled
}

func firstNumber(text string, exprs ...*regexp.Regexp) (float64, bool) {
	for _, expr := range exprs {
		m := expr.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}
