package core

import (
	"encoding/json"
	"testing"
)

func TestDateCanonicalForm(t *testing.T) {
	d := NewDate(2024, 3, 15)
	if got := d.String(); got != "2024-03-15" {
		t.Fatalf("String() = %q, want 2024-03-15", got)
	}
	if got := d.MonthKey(); got != "2024-03" {
		t.Fatalf("MonthKey() = %q, want 2024-03", got)
	}
	if got := d.DayOfMonth(); got != 15 {
		t.Fatalf("DayOfMonth() = %d, want 15", got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 1, 2)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-01-02"` {
		t.Fatalf("marshal = %s, want \"2024-01-02\"", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip changed date: %v != %v", back, d)
	}
}

func TestParseDateRejectsNonCalendar(t *testing.T) {
	for _, in := range []string{"2024-02-30", "2024-13-01", "not-a-date", ""} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) expected error", in)
		}
	}
}

func TestSpendRecordValidate(t *testing.T) {
	valid := SpendRecord{
		ID:       "rec-0-0-x",
		Date:     NewDate(2024, 3, 15),
		Provider: AWS,
		Service:  "EC2",
		Team:     "Platform",
		Env:      EnvProd,
		CostUSD:  12.34,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*SpendRecord)
	}{
		{"zero date", func(r *SpendRecord) { r.Date = Date{} }},
		{"unknown provider", func(r *SpendRecord) { r.Provider = "AZURE" }},
		{"empty service", func(r *SpendRecord) { r.Service = "" }},
		{"unknown env", func(r *SpendRecord) { r.Env = "qa" }},
		{"negative cost", func(r *SpendRecord) { r.CostUSD = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
