package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seu-repo/utility-advisor/internal/domain"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := newApp(&out).Run(append([]string{"advisor"}, args...)); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return out.String()
}

var healthcareArgs = []string{
	"analyze",
	"-territory", "pge",
	"-naics", "622110",
	"-customer-type", "healthcare",
	"-peak-kw", "600",
	"-annual-kwh", "2500000",
	"-now", "2025-01-01T00:00:00Z",
}

func TestAnalyze_JSONIsDeterministic(t *testing.T) {
	first := run(t, healthcareArgs...)
	second := run(t, healthcareArgs...)
	if first != second {
		t.Fatal("identical invocations produced different output")
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(first), &result); err != nil {
		t.Fatalf("output is not a result bundle: %v", err)
	}
	found := false
	for _, m := range result.Matches {
		if m.ProgramID == "pge-healthcare-efficiency" && m.Status != domain.MatchStatusUnlikely && m.Status != domain.MatchStatusUnknown {
			found = true
		}
	}
	if !found {
		t.Error("expected the healthcare program to be at least likely eligible")
	}
	if result.Insights.Territory != "PGE" {
		t.Errorf("expected normalized territory, got %q", result.Insights.Territory)
	}
}

func TestAnalyze_YAMLUsesJSONFieldNames(t *testing.T) {
	out := run(t, append([]string{"-format", "yaml"}, healthcareArgs...)...)

	for _, key := range []string{"matches:", "recommendations:", "review_items:", "insights:"} {
		if !strings.Contains(out, key) {
			t.Errorf("expected %q in yaml output", key)
		}
	}
}

func TestAnalyze_IntervalFixtureAndProfileFile(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.json")
	os.WriteFile(profile, []byte(`{"territory":"PGE","naics":"622110","customer_segment":"healthcare"}`), 0o644)

	var csv strings.Builder
	csv.WriteString("timestamp,kw\n")
	csv.WriteString("2025-06-01T00:00:00-07:00,120\n")
	csv.WriteString("2025-06-01T00:15:00-07:00,130\n")
	fixture := filepath.Join(dir, "meter.csv")
	os.WriteFile(fixture, []byte(csv.String()), 0o644)

	out := run(t, "analyze", "-profile", profile, "-interval", fixture, "-now", "2025-07-01T00:00:00Z")

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid output: %v", err)
	}
	if result.Insights.ProvenMetrics == nil || result.Insights.ProvenMetrics.ValidSamples != 2 {
		t.Errorf("expected the fixture samples to be loaded, got %+v", result.Insights.ProvenMetrics)
	}
	for _, w := range result.Insights.Warnings {
		if w.Subsystem == "telemetry" {
			t.Errorf("unexpected telemetry warning %+v", w)
		}
	}
}

func TestAnalyze_ValidationErrorFails(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"advisor", "analyze", "-territory", "PGE", "-load-shift-score", "2"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCatalog_ListsAndPrints(t *testing.T) {
	list := run(t, "catalog")
	if !strings.Contains(list, "PGE") || !strings.Contains(list, "SCE") {
		t.Errorf("expected territories, got %s", list)
	}

	out := run(t, "catalog", "sce")
	var cat domain.Catalog
	if err := json.Unmarshal([]byte(out), &cat); err != nil {
		t.Fatalf("invalid catalog output: %v", err)
	}
	if cat.Territory != "SCE" || len(cat.Entries) == 0 {
		t.Errorf("unexpected catalog %+v", cat)
	}
}
