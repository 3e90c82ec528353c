package main

import (
	"reflect"
	"testing"
)

// 两个来源都有同一条规则时只保留一条，位置取决于第一个来源
func TestMergeRulesDedupFirstWins(t *testing.T) {
	a := []Rule{
		{Pattern: "ads.example.com", Kind: matchSuffix},
		{Pattern: "a-only.example.com", Kind: matchExact},
	}
	b := []Rule{
		{Pattern: "b-only.example.com", Kind: matchExact},
		{Pattern: "ads.example.com", Kind: matchSuffix},
	}

	rs := mergeRules([][]Rule{a, b})

	want := []Rule{
		{Pattern: "ads.example.com", Kind: matchSuffix},
		{Pattern: "a-only.example.com", Kind: matchExact},
		{Pattern: "b-only.example.com", Kind: matchExact},
	}
	if !reflect.DeepEqual(rs.rules, want) {
		t.Fatalf("rules = %v, want %v", rs.rules, want)
	}
}

// 相同 pattern 不同 kind 是两条不同规则
func TestMergeRulesKindIsPartOfKey(t *testing.T) {
	rs := mergeRules([][]Rule{{
		{Pattern: "ads.example.com", Kind: matchExact},
		{Pattern: "ads.example.com", Kind: matchSuffix},
	}})
	if rs.len() != 2 {
		t.Fatalf("len = %d, want 2", rs.len())
	}
}

// 输出顺序只由来源配置顺序决定：交换来源切片内容模拟不同
// 下载完成顺序，合并结果必须一致
func TestMergeRulesDeterministic(t *testing.T) {
	a := []Rule{{Pattern: "a.example.com", Kind: matchExact}}
	b := []Rule{{Pattern: "b.example.com", Kind: matchExact}}

	first := mergeRules([][]Rule{a, b})
	second := mergeRules([][]Rule{a, b})
	if !reflect.DeepEqual(first.rules, second.rules) {
		t.Fatalf("两次合并结果不一致")
	}
}

func TestRuleSetAdd(t *testing.T) {
	rs := newRuleSet()
	r := Rule{Pattern: "ads.example.com", Kind: matchSuffix}
	if !rs.add(r) {
		t.Fatalf("首次 add 应返回 true")
	}
	if rs.add(r) {
		t.Fatalf("重复 add 应返回 false")
	}
	if !rs.has(r) || rs.len() != 1 {
		t.Fatalf("集合状态异常: len=%d", rs.len())
	}
}

func TestMinimizeSuffixes(t *testing.T) {
	rs := newRuleSet()
	rs.add(Rule{Pattern: "b.com", Kind: matchSuffix})
	rs.add(Rule{Pattern: "a.b.com", Kind: matchExact})   // 被 b.com 后缀覆盖
	rs.add(Rule{Pattern: "a.b.com", Kind: matchSuffix})  // 被 b.com 后缀覆盖
	rs.add(Rule{Pattern: "b.com", Kind: matchExact})     // 被同名后缀吸收
	rs.add(Rule{Pattern: "other.net", Kind: matchExact}) // 无覆盖
	rs.add(Rule{Pattern: "ad", Kind: matchKeyword})      // 关键词不参与

	out := minimizeSuffixes(rs)

	want := []Rule{
		{Pattern: "b.com", Kind: matchSuffix},
		{Pattern: "other.net", Kind: matchExact},
		{Pattern: "ad", Kind: matchKeyword},
	}
	if !reflect.DeepEqual(out.rules, want) {
		t.Fatalf("rules = %v, want %v", out.rules, want)
	}
}

// 裁剪后保留条目的相对顺序不变
func TestMinimizeSuffixesKeepsOrder(t *testing.T) {
	rs := newRuleSet()
	rs.add(Rule{Pattern: "z.example.com", Kind: matchExact})
	rs.add(Rule{Pattern: "b.com", Kind: matchSuffix})
	rs.add(Rule{Pattern: "sub.b.com", Kind: matchExact})
	rs.add(Rule{Pattern: "a.example.com", Kind: matchExact})

	out := minimizeSuffixes(rs)
	want := []Rule{
		{Pattern: "z.example.com", Kind: matchExact},
		{Pattern: "b.com", Kind: matchSuffix},
		{Pattern: "a.example.com", Kind: matchExact},
	}
	if !reflect.DeepEqual(out.rules, want) {
		t.Fatalf("rules = %v, want %v", out.rules, want)
	}
}
