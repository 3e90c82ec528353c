package main

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
	"golang.org/x/time/rate"
)

// ---------------- 死链检测 ----------------

// 可选的构建期清洗：把已经 NXDOMAIN 的域名从结果里剔除。
// 超时/SERVFAIL 等不确定情况一律保守保留

const dnsQueryTimeout = 2 * time.Second

// shouldSkipCheck 关键词规则和带通配的条目无法直接解析，不检测
func shouldSkipCheck(r Rule) bool {
	return r.Kind == matchKeyword || strings.Contains(r.Pattern, "*")
}

// ensurePort 允许配置里只写 IP
func ensurePort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, "53")
}

// lookupName 查询用的 ASCII 形式。规则本身保持原样，
// 只在发起 DNS 查询时临时转 punycode
func lookupName(pattern string) (string, bool) {
	name, err := idna.Lookup.ToASCII(pattern)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// isDead 只有服务器明确返回 NXDOMAIN 才判死
func isDead(client *dns.Client, server, name string) bool {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeA)
	m.RecursionDesired = true

	resp, _, err := client.Exchange(m, server)
	if err != nil || resp == nil {
		return false
	}
	return resp.Rcode == dns.RcodeNameError
}

// filterDeadRules 并发检测并过滤失效域名。
// 结果顺序仍由原集合决定，与检测完成顺序无关
func filterDeadRules(s Settings, rs *ruleSet) (*ruleSet, int) {
	server := ensurePort(s.DNSServer)
	limiter := rate.NewLimiter(rate.Limit(s.DNSQPS), s.DNSQPS)

	dead := make([]bool, len(rs.rules))
	jobs := make(chan int, len(rs.rules))

	var wg sync.WaitGroup
	for i := 0; i < s.DNSConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &dns.Client{Net: "udp", Timeout: dnsQueryTimeout}
			for idx := range jobs {
				r := rs.rules[idx]
				name, ok := lookupName(r.Pattern)
				if !ok {
					continue
				}
				_ = limiter.Wait(context.Background())
				if isDead(client, server, name) {
					dead[idx] = true
				}
			}
		}()
	}

	for i, r := range rs.rules {
		if shouldSkipCheck(r) {
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := newRuleSet()
	removed := 0
	for i, r := range rs.rules {
		if dead[i] {
			removed++
			continue
		}
		out.add(r)
	}
	return out, removed
}
