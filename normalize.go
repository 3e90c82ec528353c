package main

import (
	"bufio"
	"regexp"
	"strings"
)

// ---------------- 规则归一化 ----------------

type matchKind int

const (
	matchExact matchKind = iota
	matchSuffix
	matchKeyword
)

// String 返回 Loon 规则类型字段
func (k matchKind) String() string {
	switch k {
	case matchSuffix:
		return "DOMAIN-SUFFIX"
	case matchKeyword:
		return "DOMAIN-KEYWORD"
	default:
		return "DOMAIN"
	}
}

// Rule 归一化后的拦截规则。动作固定为 REJECT，
// 去重键是 (Kind, Pattern)
type Rule struct {
	Pattern string
	Kind    matchKind
}

// Clause Loon 匹配子句，如 DOMAIN-SUFFIX,example.com
func (r Rule) Clause() string {
	return r.Kind.String() + "," + r.Pattern
}

// parseStats 单个文档的解析统计
type parseStats struct {
	parsed   int // 成功解析的规则行
	skipped  int // 按当前格式解析不了的行
	dropped  int // 主动丢弃的行（白名单、元素隐藏等）
	redirect int // hosts 中指向自定义 IP 的行
}

// skipRate 解析失败占比，用于误判提示
func (st parseStats) skipRate() float64 {
	total := st.parsed + st.skipped
	if total == 0 {
		return 0
	}
	return float64(st.skipped) / float64(total)
}

// 域名合法性检查。国际化域名按原样保留（不转 punycode），
// 所以这里允许 Unicode 字母数字
var domainRe = regexp.MustCompile(`^[\p{L}\p{N}]([\p{L}\p{N}-]{0,61}[\p{L}\p{N}])?(\.[\p{L}\p{N}]([\p{L}\p{N}-]{0,61}[\p{L}\p{N}])?)+$`)

func validDomain(d string) bool {
	return len(d) <= 253 && domainRe.MatchString(d)
}

// hosts 中的黑洞占位 IP，命中即认为是拦截标记
var blackholeIPs = map[string]bool{
	"0.0.0.0":   true,
	"127.0.0.1": true,
	"::":        true,
	"::1":       true,
}

// isLocalLikeDomain 本机/内网名称，不应进入拦截列表
func isLocalLikeDomain(d string) bool {
	switch d {
	case "localhost", "local", "localdomain", "broadcasthost",
		"ip6-localhost", "ip6-loopback", "ip6-localnet", "ip6-mcastprefix",
		"ip6-allnodes", "ip6-allrouters":
		return true
	}
	return strings.HasSuffix(d, ".local") ||
		strings.HasSuffix(d, ".lan") ||
		strings.HasSuffix(d, ".home") ||
		strings.HasSuffix(d, ".corp") ||
		strings.HasSuffix(d, ".invalid")
}

// cleanPattern 小写 + 去空白，通配前缀转为后缀匹配
func cleanPattern(raw string) (string, matchKind, bool) {
	d := strings.ToLower(strings.TrimSpace(raw))
	kind := matchExact
	switch {
	case strings.HasPrefix(d, "*."):
		d, kind = d[2:], matchSuffix
	case strings.HasPrefix(d, "+."):
		d, kind = d[2:], matchSuffix
	case strings.HasPrefix(d, "."):
		d, kind = d[1:], matchSuffix
	}
	if !validDomain(d) {
		return "", 0, false
	}
	return d, kind, true
}

// normalizeDoc 把识别好格式的文档转成规则序列。
// 解析不了的行静默跳过并计数，不中断
func normalizeDoc(body string, f format) ([]Rule, parseStats) {
	switch f {
	case formatHosts:
		return parseHostsDoc(body)
	case formatAdblock:
		return parseAdblockDoc(body)
	case formatSurgeLoon:
		return parseSurgeDoc(body)
	case formatPlain:
		return parsePlainDoc(body)
	default:
		return nil, parseStats{}
	}
}

func eachLine(body string, fn func(line string)) {
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
}

// stripInlineComment 去掉行尾 # 注释
func stripInlineComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// parseHostsDoc hosts 格式: IP 主机名。
// 黑洞 IP（0.0.0.0/127.0.0.1/::/::1）视为拦截标记；
// 指向其他 IP 的自定义重定向行保留规则但单独计数，由上层提示
func parseHostsDoc(body string) ([]Rule, parseStats) {
	var rules []Rule
	var st parseStats

	eachLine(body, func(line string) {
		if strings.HasPrefix(line, "#") {
			return
		}
		line = stripInlineComment(line)
		if line == "" {
			return
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			st.skipped++
			return
		}

		ip := strings.Trim(fields[0], "[]")
		if !looksLikeHostsLine(line) {
			st.skipped++
			return
		}
		if !blackholeIPs[ip] {
			st.redirect++
		}

		d, kind, ok := cleanPattern(fields[1])
		if !ok {
			// localhost 这类本机名没有点号，过不了域名校验，单独归类
			if isLocalLikeDomain(strings.ToLower(fields[1])) {
				st.dropped++
			} else {
				st.skipped++
			}
			return
		}
		if isLocalLikeDomain(d) {
			st.dropped++
			return
		}

		rules = append(rules, Rule{Pattern: d, Kind: kind})
		st.parsed++
	})

	return rules, st
}

// parseAdblockDoc Adblock 语法。
// ||domain^ 转为后缀匹配，修饰符忽略；
// 白名单(@@)与元素隐藏(## 等)直接丢弃；裸域名行按精确匹配收下
func parseAdblockDoc(body string) ([]Rule, parseStats) {
	var rules []Rule
	var st parseStats

	eachLine(body, func(line string) {
		if strings.HasPrefix(line, "!") || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "[") {
			return
		}
		if strings.HasPrefix(line, "@@") {
			st.dropped++
			return
		}
		if strings.Contains(line, "##") || strings.Contains(line, "#@#") ||
			strings.Contains(line, "#?#") {
			st.dropped++
			return
		}

		if strings.HasPrefix(line, "||") {
			rest := line[2:]
			// 截到第一个分隔符为止，^ 之后的 $ 修饰符一并忽略
			if i := strings.IndexAny(rest, "^$/"); i >= 0 {
				rest = rest[:i]
			}
			d := strings.ToLower(strings.TrimSpace(rest))
			if !validDomain(d) {
				st.skipped++
				return
			}
			rules = append(rules, Rule{Pattern: d, Kind: matchSuffix})
			st.parsed++
			return
		}

		// 个别 Adblock 列表混有裸域名行
		d := strings.ToLower(line)
		if validDomain(d) && !isLocalLikeDomain(d) {
			rules = append(rules, Rule{Pattern: d, Kind: matchExact})
			st.parsed++
			return
		}

		st.skipped++
	})

	return rules, st
}

// parseSurgeDoc Surge/Loon 规则: 类型,值[,策略,tag=...,enabled=...]。
// 输入里的策略等尾部字段忽略，输出时重新生成
func parseSurgeDoc(body string) ([]Rule, parseStats) {
	var rules []Rule
	var st parseStats

	eachLine(body, func(line string) {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") ||
			strings.HasPrefix(line, "//") || strings.HasPrefix(line, "[") {
			return
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			st.skipped++
			return
		}

		var kind matchKind
		switch strings.ToUpper(strings.TrimSpace(fields[0])) {
		case "DOMAIN":
			kind = matchExact
		case "DOMAIN-SUFFIX":
			kind = matchSuffix
		case "DOMAIN-KEYWORD":
			kind = matchKeyword
		default:
			// IP-CIDR、URL-REGEX 等本工具不收
			st.skipped++
			return
		}

		raw := strings.TrimSpace(fields[1])
		if kind == matchKeyword {
			kw := strings.ToLower(raw)
			if kw == "" {
				st.skipped++
				return
			}
			rules = append(rules, Rule{Pattern: kw, Kind: matchKeyword})
			st.parsed++
			return
		}

		d := strings.ToLower(raw)
		if !validDomain(d) {
			st.skipped++
			return
		}
		rules = append(rules, Rule{Pattern: d, Kind: kind})
		st.parsed++
	})

	return rules, st
}

// parsePlainDoc 纯域名列表，一行一个
func parsePlainDoc(body string) ([]Rule, parseStats) {
	var rules []Rule
	var st parseStats

	eachLine(body, func(line string) {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			return
		}
		line = stripInlineComment(line)
		if line == "" {
			return
		}

		d, kind, ok := cleanPattern(line)
		if !ok {
			if isLocalLikeDomain(strings.ToLower(line)) {
				st.dropped++
			} else {
				st.skipped++
			}
			return
		}
		if isLocalLikeDomain(d) {
			st.dropped++
			return
		}

		rules = append(rules, Rule{Pattern: d, Kind: kind})
		st.parsed++
	})

	return rules, st
}
