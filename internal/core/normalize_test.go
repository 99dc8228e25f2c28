package core

import "testing"

func TestNormalizeProvider(t *testing.T) {
	cases := []struct {
		in  string
		out Provider
		ok  bool
	}{
		{"AWS", AWS, true},
		{"aws", AWS, true},
		{"Amazon AWS", AWS, true},
		{"GCP", GCP, true},
		{"Google Cloud", GCP, true},
		{"google", GCP, true},
		{"Azure", "", false},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeProvider(tc.in)
		if ok != tc.ok || got != tc.out {
			t.Errorf("NormalizeProvider(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.out, tc.ok)
		}
	}
}

func TestDetectProviderOrder(t *testing.T) {
	// The rule list is ordered: a hint containing both vendor names resolves
	// to the first rule that matches.
	if p, ok := DetectProvider("aws_and_gcp_export.xlsx"); !ok || p != AWS {
		t.Fatalf("combined hint = %q, %v; want AWS", p, ok)
	}
	if p, ok := DetectProvider("gcp_billing_12mo.csvSheet1"); !ok || p != GCP {
		t.Fatalf("gcp hint = %q, %v; want GCP", p, ok)
	}
	if _, ok := DetectProvider("billing_export.xlsx"); ok {
		t.Fatal("neutral hint should not detect a provider")
	}
}

func TestNormalizeEnvironment(t *testing.T) {
	cases := []struct {
		in  string
		out Environment
	}{
		{"prod", EnvProd},
		{"Production", EnvProd},
		{"staging", EnvStaging},
		{"STAGE", EnvStaging},
		{"dev", EnvDev},
		{"Development", EnvDev},
		{"qa", EnvProd},
		{"", EnvProd},
	}
	for _, tc := range cases {
		if got := NormalizeEnvironment(tc.in); got != tc.out {
			t.Errorf("NormalizeEnvironment(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
