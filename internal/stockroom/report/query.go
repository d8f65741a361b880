package report

import (
	"net/url"

	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/errors"
	"github.com/medflow/stockroom/pkg/httputil"
	"github.com/medflow/stockroom/pkg/i18n"
)

// ParseOverviewFilter reads an overview filter from query or form values:
// study_id, product_id (repeatable), expiry_from, expiry_to, zero_balance.
func ParseOverviewFilter(values url.Values) (OverviewFilter, error) {
	var f OverviewFilter
	var err error
	if f.StudyIDs, err = httputil.Int64s(values, "study_id"); err != nil {
		return f, err
	}
	if f.ProductIDs, err = httputil.Int64s(values, "product_id"); err != nil {
		return f, err
	}
	if f.ExpiryFrom, f.ExpiryTo, err = expiryRange(values); err != nil {
		return f, err
	}
	f.ZeroBalanceOnly = httputil.Bool(values, "zero_balance")
	return f, nil
}

// ParseLogFilter reads a movement log filter: the overview keys plus actor,
// lot (repeatable) and exclude_no_expiry.
func ParseLogFilter(values url.Values) (LogFilter, error) {
	var f LogFilter
	var err error
	if f.StudyIDs, err = httputil.Int64s(values, "study_id"); err != nil {
		return f, err
	}
	if f.ProductIDs, err = httputil.Int64s(values, "product_id"); err != nil {
		return f, err
	}
	if f.ExpiryFrom, f.ExpiryTo, err = expiryRange(values); err != nil {
		return f, err
	}
	f.Actors = httputil.Strings(values, "actor")
	f.Lots = httputil.Strings(values, "lot")
	f.ExcludeNoExpiry = httputil.Bool(values, "exclude_no_expiry")
	return f, nil
}

func expiryRange(values url.Values) (from, to *domain.Date, err error) {
	if from, err = domain.ParseOptionalDate(values.Get("expiry_from")); err != nil {
		return nil, nil, invalidDate("expiry_from")
	}
	if to, err = domain.ParseOptionalDate(values.Get("expiry_to")); err != nil {
		return nil, nil, invalidDate("expiry_to")
	}
	return from, to, nil
}

func invalidDate(field string) error {
	return errors.Validation(map[string]string{field: i18n.T("validation.invalid_date")})
}
