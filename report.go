package main

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strconv"
)

// ---------------- 重叠分析 ----------------

// 输出各来源的规则数量和两两交集大小，
// 方便评估哪些来源贡献独有规则、哪些基本重复

// sourceRuleSets 每个成功来源的规则键集合
func sourceRuleSets(results []sourceResult) (names []string, sets []map[ruleKey]struct{}) {
	for _, res := range results {
		if !res.OK || len(res.Rules) == 0 {
			continue
		}
		set := make(map[ruleKey]struct{}, len(res.Rules))
		for _, r := range res.Rules {
			set[ruleKey{kind: r.Kind, pattern: r.Pattern}] = struct{}{}
		}
		names = append(names, res.Source.Name)
		sets = append(sets, set)
	}
	return names, sets
}

func writeCSV(path string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeOverlapReports 生成 rules_overlap_sources.csv 与 rules_overlap_pairs.csv
func writeOverlapReports(dir string, results []sourceResult) error {
	names, sets := sourceRuleSets(results)

	// 每个键在多少个来源里出现，用于统计独有规则
	occurrence := make(map[ruleKey]int)
	for _, set := range sets {
		for key := range set {
			occurrence[key]++
		}
	}

	sourceRows := [][]string{{"source", "total", "unique"}}
	for i, name := range names {
		unique := 0
		for key := range sets[i] {
			if occurrence[key] == 1 {
				unique++
			}
		}
		sourceRows = append(sourceRows, []string{
			name,
			strconv.Itoa(len(sets[i])),
			strconv.Itoa(unique),
		})
	}
	if err := writeCSV(filepath.Join(dir, "rules_overlap_sources.csv"), sourceRows); err != nil {
		return err
	}

	pairRows := [][]string{{"source_a", "source_b", "overlap"}}
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			overlap := 0
			small, large := sets[i], sets[j]
			if len(large) < len(small) {
				small, large = large, small
			}
			for key := range small {
				if _, ok := large[key]; ok {
					overlap++
				}
			}
			pairRows = append(pairRows, []string{names[i], names[j], strconv.Itoa(overlap)})
		}
	}
	return writeCSV(filepath.Join(dir, "rules_overlap_pairs.csv"), pairRows)
}
