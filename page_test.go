package main

import (
	"strings"
	"testing"
	"time"
)

func TestRenderStatusPage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	results := []sourceResult{
		{
			Source:    Source{Name: "good_src", URL: "https://example.com/a.txt"},
			OK:        true,
			Format:    formatHosts,
			Rules:     []Rule{{Pattern: "ads.example.com", Kind: matchExact}},
			Stats:     parseStats{parsed: 1, skipped: 2},
			FetchedAt: now,
		},
		{
			Source:    Source{Name: "bad_src", URL: "https://example.com/b.txt"},
			OK:        false,
			ErrMsg:    "HTTP 500",
			FetchedAt: now,
		},
	}

	merged := newRuleSet()
	merged.add(Rule{Pattern: "ads.example.com", Kind: matchExact})

	data, err := renderStatusPage(results, merged, now)
	if err != nil {
		t.Fatalf("renderStatusPage: %v", err)
	}
	html := string(data)

	for _, want := range []string{
		"good_src",
		"bad_src",
		"失败: HTTP 500",
		"https://example.com/a.txt",
		"2025-06-01 12:00:00",
		"去重后 1 条",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("状态页缺少 %q", want)
		}
	}
}
