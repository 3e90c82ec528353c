package main

import (
	"bufio"
	"net"
	"regexp"
	"strings"
)

// ---------------- 格式识别 ----------------

type format int

const (
	formatUnknown format = iota
	formatHosts
	formatSurgeLoon
	formatAdblock
	formatPlain
)

func (f format) String() string {
	switch f {
	case formatHosts:
		return "hosts"
	case formatSurgeLoon:
		return "surge"
	case formatAdblock:
		return "adblock"
	case formatPlain:
		return "plain"
	default:
		return "unknown"
	}
}

// formatFromHint 配置里手动指定的格式
func formatFromHint(hint string) (format, bool) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "hosts":
		return formatHosts, true
	case "surge", "loon", "surge_loon":
		return formatSurgeLoon, true
	case "adblock", "adguard":
		return formatAdblock, true
	case "plain", "domains":
		return formatPlain, true
	default:
		return formatUnknown, false
	}
}

// 识别采样行数；采样命中率过低时回退到全文扫描
const (
	detectSampleLines  = 120
	detectMinMatchRate = 0.1
)

// Surge/Loon 规则行: 规则类型,值[,策略...]
var surgeLineRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*,\S`)

// looksLikeHostsLine IP + 空白 + 主机名
func looksLikeHostsLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}
	ip := strings.Trim(fields[0], "[]")
	return net.ParseIP(ip) != nil
}

func looksLikeAdblockLine(line string) bool {
	if strings.HasPrefix(line, "||") && strings.Contains(line, "^") {
		return true
	}
	if strings.HasPrefix(line, "@@") || strings.Contains(line, "##") {
		return true
	}
	// Adblock 注释与文件头
	return strings.HasPrefix(line, "!") || strings.HasPrefix(line, "[Adblock")
}

// classifyLines 按固定优先级归类：hosts > surge > adblock > plain。
// 返回识别结果和采样命中率
func classifyLines(lines []string) (format, float64) {
	var hosts, surge, adblock, plain, total int

	for _, line := range lines {
		total++
		switch {
		case looksLikeHostsLine(line):
			hosts++
		case surgeLineRe.MatchString(line):
			surge++
		case looksLikeAdblockLine(line):
			adblock++
		default:
			// 纯域名列表也可能用 *. / +. / 前导点 表示后缀，
			// 与 parsePlainDoc 的接受范围保持一致
			if _, _, ok := cleanPattern(line); ok {
				plain++
			}
		}
	}

	if total == 0 {
		return formatUnknown, 0
	}
	matched := hosts + surge + adblock + plain
	rate := float64(matched) / float64(total)

	switch {
	case hosts > 0:
		return formatHosts, rate
	case surge > 0:
		return formatSurgeLoon, rate
	case adblock > 0:
		return formatAdblock, rate
	case plain == total:
		// 纯域名列表要求采样行全部是裸域名
		return formatPlain, rate
	default:
		return formatUnknown, rate
	}
}

// sampleLines 取前 n 个非注释、非空行；n<=0 取全文
func sampleLines(body string, n int) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
		if n > 0 && len(lines) >= n {
			break
		}
	}
	return lines
}

// detectFormat 基于结构特征识别文档格式。
// 先看头部采样，命中率太低或识别失败时扫描全文再判一次
func detectFormat(body string) format {
	sample := sampleLines(body, detectSampleLines)
	f, rate := classifyLines(sample)
	if f != formatUnknown && rate >= detectMinMatchRate {
		return f
	}

	all := sampleLines(body, 0)
	if len(all) <= len(sample) {
		return f
	}
	f, _ = classifyLines(all)
	return f
}
