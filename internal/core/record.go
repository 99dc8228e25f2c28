package core

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	AWS Provider = "AWS"
	GCP Provider = "GCP"
)

const (
	EnvProd    Environment = "prod"
	EnvStaging Environment = "staging"
	EnvDev     Environment = "dev"
)

type (
	// Provider is the cloud vendor a spend record is attributed to.
	Provider string

	// Environment is the deployment tier classification.
	Environment string

	// Date is a day-precision calendar date. The time component is always
	// midnight UTC; JSON form is YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// SpendRecord is one normalized line item of cloud cost.
	SpendRecord struct {
		ID        string      `json:"id"`
		Date      Date        `json:"date"`
		Provider  Provider    `json:"cloud_provider"`
		Service   string      `json:"service"`
		Team      string      `json:"team"`
		Env       Environment `json:"env"`
		CostUSD   float64     `json:"cost_usd"`
		AccountID string      `json:"account_id"`
		ProjectID string      `json:"project_id"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidProvider = errors.New("invalid provider")
	ErrInvalidEnv      = errors.New("invalid environment")
	ErrEmptyService    = errors.New("empty service")
	ErrInvalidCost     = errors.New("invalid cost")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to a calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM slice of the date. Lexicographic order of
// month keys is chronological order.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// DayOfMonth returns the day of the month (1-31).
func (d Date) DayOfMonth() int {
	return d.Time.Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (p Provider) Valid() bool {
	return p == AWS || p == GCP
}

func (e Environment) Valid() bool {
	return e == EnvProd || e == EnvStaging || e == EnvDev
}

// Validate checks the stored-record invariants: a valid calendar date, a
// provider that is exactly AWS or GCP, a non-empty service label, and a
// finite non-negative cost.
func (r SpendRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if !r.Provider.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidProvider, r.Provider)
	}
	if r.Service == "" {
		return ErrEmptyService
	}
	if !r.Env.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEnv, r.Env)
	}
	if math.IsNaN(r.CostUSD) || math.IsInf(r.CostUSD, 0) || r.CostUSD < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCost, r.CostUSD)
	}
	return nil
}
