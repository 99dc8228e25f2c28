package core

import "strings"

// Normalization is rule-list driven: each table is an ordered list of
// (substring pattern -> canonical value) entries evaluated case-insensitively,
// first match wins. The order is part of the contract.

type providerRule struct {
	Pattern string
	Value   Provider
}

type environmentRule struct {
	Pattern string
	Value   Environment
}

var providerRules = []providerRule{
	{"aws", AWS},
	{"gcp", GCP},
	{"google", GCP},
}

var environmentRules = []environmentRule{
	{"prod", EnvProd},
	{"stag", EnvStaging},
	{"dev", EnvDev},
}

// NormalizeProvider maps a raw provider string onto the provider enum.
// Unrecognized or empty values fail normalization; callers reject the row.
func NormalizeProvider(raw string) (Provider, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return "", false
	}
	for _, rule := range providerRules {
		if strings.Contains(lower, rule.Pattern) {
			return rule.Value, true
		}
	}
	return "", false
}

// DetectProvider infers a provider from contextual names (filename plus
// sheet name). It applies the same ordered rule list as NormalizeProvider;
// an explicit provider column value still takes precedence over the result.
func DetectProvider(nameHint string) (Provider, bool) {
	return NormalizeProvider(nameHint)
}

// NormalizeEnvironment maps a raw environment string onto the environment
// enum. Absent or unrecognized values default to prod.
func NormalizeEnvironment(raw string) Environment {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range environmentRules {
		if strings.Contains(lower, rule.Pattern) {
			return rule.Value
		}
	}
	return EnvProd
}
