package ingest

import (
	"errors"
	"fmt"

	"cloudspend/internal/core"
)

// Row rejection reasons. Rejections are soft: the row is skipped and
// counted, never surfaced as an ingestion error.
var (
	ErrMissingProvider = errors.New("missing provider")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingService  = errors.New("missing service")
	ErrBadCost         = errors.New("bad cost value")
)

// rowContext carries per-sheet state into record building.
type rowContext struct {
	SheetIndex int
	// Provider inferred from filename and sheet name, or supplied by the
	// caller for sources known to be single-provider. "" when no inference
	// was possible.
	DetectedProvider core.Provider
	// BatchToken distinguishes ids from different ingestion batches.
	BatchToken string
}

// buildRecord turns one raw row into a validated SpendRecord or a skip
// signal. Any one rejection condition is sufficient: unparseable date,
// missing or unnormalizable provider, missing service, or a cost value that
// fails numeric coercion.
func buildRecord(row Row, rowIndex int, ctx rowContext) (core.SpendRecord, error) {
	date, err := ParseFlexibleDate(row.lookup(dateColumns))
	if err != nil {
		return core.SpendRecord{}, err
	}

	rawProvider := row.lookup(providerColumns)
	if rawProvider == "" {
		rawProvider = string(ctx.DetectedProvider)
	}
	if rawProvider == "" {
		return core.SpendRecord{}, ErrMissingProvider
	}
	provider, ok := core.NormalizeProvider(rawProvider)
	if !ok {
		return core.SpendRecord{}, fmt.Errorf("%w: %q", ErrUnknownProvider, rawProvider)
	}

	service := row.lookup(serviceColumns)
	if service == "" {
		return core.SpendRecord{}, ErrMissingService
	}

	cost, err := core.ParseCost(row.lookup(costColumns))
	if err != nil {
		return core.SpendRecord{}, fmt.Errorf("%w: %q", ErrBadCost, row.lookup(costColumns))
	}

	rec := core.SpendRecord{
		ID:        fmt.Sprintf("rec-%d-%d-%s", ctx.SheetIndex, rowIndex, ctx.BatchToken),
		Date:      date,
		Provider:  provider,
		Service:   service,
		Team:      row.lookupOr(teamColumns, defaultTeam),
		Env:       core.NormalizeEnvironment(row.lookup(envColumns)),
		CostUSD:   core.Round2(cost),
		AccountID: row.lookupOr(accountColumns, defaultAccountID),
		ProjectID: row.lookupOr(projectColumns, defaultProjectID),
	}
	return rec, nil
}
