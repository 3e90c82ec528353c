package main

import "strings"

// ---------------- 聚合去重 ----------------

type ruleKey struct {
	kind    matchKind
	pattern string
}

// ruleSet 保序去重集合：首次出现的 (kind, pattern) 决定位置，
// 后续重复直接丢弃，保证多次运行输出稳定、diff 有意义
type ruleSet struct {
	rules []Rule
	seen  map[ruleKey]struct{}
}

func newRuleSet() *ruleSet {
	return &ruleSet{seen: make(map[ruleKey]struct{})}
}

// add 插入规则，重复返回 false
func (rs *ruleSet) add(r Rule) bool {
	key := ruleKey{kind: r.Kind, pattern: r.Pattern}
	if _, ok := rs.seen[key]; ok {
		return false
	}
	rs.seen[key] = struct{}{}
	rs.rules = append(rs.rules, r)
	return true
}

func (rs *ruleSet) has(r Rule) bool {
	_, ok := rs.seen[ruleKey{kind: r.Kind, pattern: r.Pattern}]
	return ok
}

func (rs *ruleSet) len() int {
	return len(rs.rules)
}

// mergeRules 按配置的来源顺序合并，与下载完成顺序无关
func mergeRules(perSource [][]Rule) *ruleSet {
	rs := newRuleSet()
	for _, rules := range perSource {
		for _, r := range rules {
			rs.add(r)
		}
	}
	return rs
}

// minimizeSuffixes 裁剪被后缀规则覆盖的条目：
// 已有 DOMAIN-SUFFIX,b.com 时，DOMAIN,a.b.com / DOMAIN-SUFFIX,a.b.com
// 以及 DOMAIN,b.com 都是冗余。保留条目维持原有顺序
func minimizeSuffixes(rs *ruleSet) *ruleSet {
	suffixes := make(map[string]struct{})
	for _, r := range rs.rules {
		if r.Kind == matchSuffix {
			suffixes[r.Pattern] = struct{}{}
		}
	}

	coveredBySuffix := func(r Rule) bool {
		if r.Kind == matchKeyword {
			return false
		}
		// 精确匹配可以被同域名的后缀规则吸收
		if r.Kind == matchExact {
			if _, ok := suffixes[r.Pattern]; ok {
				return true
			}
		}
		// 逐级向上找父后缀
		d := r.Pattern
		for {
			i := strings.Index(d, ".")
			if i < 0 {
				return false
			}
			d = d[i+1:]
			if _, ok := suffixes[d]; ok {
				return true
			}
		}
	}

	out := newRuleSet()
	for _, r := range rs.rules {
		if coveredBySuffix(r) {
			continue
		}
		out.add(r)
	}
	return out
}
