// Package aggregate computes filtered summary views over a spend record
// set. Query is a pure function of its inputs: the same records and filter
// always produce the same result, so summaries are re-derivable at any time.
package aggregate

import (
	"sort"
	"strings"

	"cloudspend/internal/core"
)

// Filter is the set of dimension constraints applied before aggregation.
// "all" or empty means no constraint on that dimension; constraints compose
// with logical AND.
type Filter struct {
	Provider string // case-insensitive equality against AWS|GCP
	Team     string // exact match
	Env      string // exact match
	Month    string // YYYY-MM prefix match against the record date
}

type TopService struct {
	Service string  `json:"service"`
	Total   float64 `json:"total"`
}

type Summary struct {
	Total       float64     `json:"total"`
	AWS         float64     `json:"aws"`
	GCP         float64     `json:"gcp"`
	RecordCount int         `json:"recordCount"`
	TopService  *TopService `json:"topService,omitempty"`
}

type MonthlyPoint struct {
	Month string  `json:"month"`
	AWS   float64 `json:"aws"`
	GCP   float64 `json:"gcp"`
	Total float64 `json:"total"`
}

type DailyPoint struct {
	Date  string  `json:"date"`
	Day   int     `json:"day"`
	AWS   float64 `json:"aws"`
	GCP   float64 `json:"gcp"`
	Total float64 `json:"total"`
}

type TeamPoint struct {
	Team  string  `json:"team"`
	Total float64 `json:"total"`
}

// FilterOptions are the distinct dimension values across the entire
// unfiltered store, letting a caller populate filter controls regardless of
// the current selection.
type FilterOptions struct {
	Months       []string `json:"months"`
	Teams        []string `json:"teams"`
	Environments []string `json:"environments"`
}

type Result struct {
	Records       []core.SpendRecord `json:"records"`
	Summary       Summary            `json:"summary"`
	MonthlyData   []MonthlyPoint     `json:"monthlyData"`
	DailyData     []DailyPoint       `json:"dailyData"`
	TeamData      []TeamPoint        `json:"teamData"`
	Filters       FilterOptions      `json:"filters"`
	SelectedMonth string             `json:"selectedMonth"`
}

func constrained(v string) bool {
	return v != "" && v != "all"
}

func (f Filter) matches(r core.SpendRecord) bool {
	if constrained(f.Provider) && !strings.EqualFold(string(r.Provider), f.Provider) {
		return false
	}
	if constrained(f.Team) && r.Team != f.Team {
		return false
	}
	if constrained(f.Env) && string(r.Env) != f.Env {
		return false
	}
	if constrained(f.Month) && !strings.HasPrefix(r.Date.String(), f.Month) {
		return false
	}
	return true
}

// Query applies the filter and computes the full aggregation result.
// Monetary sums accumulate unrounded and are rounded to 2 fraction digits
// only at the point of output.
func Query(all []core.SpendRecord, f Filter) Result {
	filtered := make([]core.SpendRecord, 0, len(all))
	for _, r := range all {
		if f.matches(r) {
			filtered = append(filtered, r)
		}
	}

	res := Result{
		Records:       filtered,
		Summary:       summarize(filtered),
		MonthlyData:   monthlyBreakdown(filtered),
		DailyData:     dailyBreakdown(filtered),
		TeamData:      teamBreakdown(filtered),
		Filters:       filterOptions(all),
		SelectedMonth: f.Month,
	}
	if res.SelectedMonth == "" {
		res.SelectedMonth = "all"
	}
	return res
}

func summarize(records []core.SpendRecord) Summary {
	var total, aws, gcp float64
	serviceTotals := map[string]float64{}
	serviceOrder := []string{}

	for _, r := range records {
		total += r.CostUSD
		switch r.Provider {
		case core.AWS:
			aws += r.CostUSD
		case core.GCP:
			gcp += r.CostUSD
		}
		if _, seen := serviceTotals[r.Service]; !seen {
			serviceOrder = append(serviceOrder, r.Service)
		}
		serviceTotals[r.Service] += r.CostUSD
	}

	// The leader only moves on a strictly greater total, so among equals
	// the first service encountered in iteration order keeps the spot.
	top := TopService{Service: "None", Total: 0}
	for _, svc := range serviceOrder {
		if serviceTotals[svc] > top.Total {
			top = TopService{Service: svc, Total: serviceTotals[svc]}
		}
	}

	s := Summary{
		Total:       core.Round2(total),
		AWS:         core.Round2(aws),
		GCP:         core.Round2(gcp),
		RecordCount: len(records),
	}
	if top.Total > 0 {
		top.Total = core.Round2(top.Total)
		s.TopService = &top
	}
	return s
}

func monthlyBreakdown(records []core.SpendRecord) []MonthlyPoint {
	groups := map[string]*MonthlyPoint{}
	for _, r := range records {
		key := r.Date.MonthKey()
		p, ok := groups[key]
		if !ok {
			p = &MonthlyPoint{Month: key}
			groups[key] = p
		}
		p.Total += r.CostUSD
		switch r.Provider {
		case core.AWS:
			p.AWS += r.CostUSD
		case core.GCP:
			p.GCP += r.CostUSD
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys) // lexicographic == chronological for YYYY-MM

	out := make([]MonthlyPoint, 0, len(keys))
	for _, k := range keys {
		p := *groups[k]
		p.AWS = core.Round2(p.AWS)
		p.GCP = core.Round2(p.GCP)
		p.Total = core.Round2(p.Total)
		out = append(out, p)
	}
	return out
}

func dailyBreakdown(records []core.SpendRecord) []DailyPoint {
	groups := map[string]*DailyPoint{}
	for _, r := range records {
		key := r.Date.String()
		p, ok := groups[key]
		if !ok {
			p = &DailyPoint{Date: key, Day: r.Date.DayOfMonth()}
			groups[key] = p
		}
		p.Total += r.CostUSD
		switch r.Provider {
		case core.AWS:
			p.AWS += r.CostUSD
		case core.GCP:
			p.GCP += r.CostUSD
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DailyPoint, 0, len(keys))
	for _, k := range keys {
		p := *groups[k]
		p.AWS = core.Round2(p.AWS)
		p.GCP = core.Round2(p.GCP)
		p.Total = core.Round2(p.Total)
		out = append(out, p)
	}
	return out
}

func teamBreakdown(records []core.SpendRecord) []TeamPoint {
	totals := map[string]float64{}
	order := []string{}
	for _, r := range records {
		if _, seen := totals[r.Team]; !seen {
			order = append(order, r.Team)
		}
		totals[r.Team] += r.CostUSD
	}

	out := make([]TeamPoint, 0, len(order))
	for _, team := range order {
		out = append(out, TeamPoint{Team: team, Total: totals[team]})
	}
	// Highest spend first; equal totals keep group-creation order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	for i := range out {
		out[i].Total = core.Round2(out[i].Total)
	}
	return out
}

func filterOptions(all []core.SpendRecord) FilterOptions {
	months := map[string]struct{}{}
	teams := map[string]struct{}{}
	envs := map[string]struct{}{}
	for _, r := range all {
		months[r.Date.MonthKey()] = struct{}{}
		teams[r.Team] = struct{}{}
		envs[string(r.Env)] = struct{}{}
	}

	opts := FilterOptions{
		Months:       keys(months),
		Teams:        keys(teams),
		Environments: keys(envs),
	}
	sort.Sort(sort.Reverse(sort.StringSlice(opts.Months))) // most recent first
	sort.Strings(opts.Teams)
	sort.Strings(opts.Environments)
	return opts
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
