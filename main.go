package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ---------------- 主流程 ----------------

// sourceResult 单个来源走完 抓取→识别→归一化 后的结果
type sourceResult struct {
	Source    Source
	OK        bool
	ErrMsg    string
	Format    format
	Rules     []Rule
	Stats     parseStats
	FetchedAt time.Time
}

// processDocs 对抓取结果逐个识别格式并归一化。
// 处理顺序就是配置顺序，聚合结果与下载完成顺序无关
func processDocs(docs []document) []sourceResult {
	results := make([]sourceResult, 0, len(docs))

	for _, doc := range docs {
		res := sourceResult{Source: doc.source, FetchedAt: doc.fetchedAt}

		if !doc.ok {
			res.ErrMsg = doc.errMsg
			fmt.Printf("   ⚠️  [%s] 下载失败: %s\n", doc.source.Name, doc.errMsg)
			results = append(results, res)
			continue
		}

		f := formatUnknown
		if doc.source.Format != "" {
			f, _ = formatFromHint(doc.source.Format)
		} else {
			f = detectFormat(doc.body)
		}
		if f == formatUnknown {
			res.ErrMsg = "无法识别格式"
			fmt.Printf("   ⚠️  [%s] 无法识别格式，跳过\n", doc.source.Name)
			results = append(results, res)
			continue
		}

		rules, st := normalizeDoc(doc.body, f)
		res.OK = true
		res.Format = f
		res.Rules = rules
		res.Stats = st

		fmt.Printf("   ✓ [%s] 格式=%s 规则=%d 跳过=%d\n",
			doc.source.Name, f, st.parsed, st.skipped)
		if st.skipRate() > 0.5 {
			fmt.Printf("   ⚠️  [%s] 跳过率 %.0f%%，可能是格式误判，已解析部分仍会使用\n",
				doc.source.Name, st.skipRate()*100)
		}
		if st.redirect > 0 {
			fmt.Printf("   ⚠️  [%s] 含 %d 行自定义重定向 IP，已按拦截规则收录\n",
				doc.source.Name, st.redirect)
		}

		results = append(results, res)
	}

	return results
}

// runPipeline 跑完整一轮。返回进程退出码：
// 至少一个来源产出规则、且至少写出一个目标即为 0，否则返回 1
func runPipeline(cfg *Config) int {
	start := time.Now()
	s := cfg.Settings

	fmt.Printf("🚀 开始聚合广告规则 (来源 %d 个, 并发 %d, 超时 %ds)\n",
		len(cfg.Sources), s.Concurrency, s.Timeout)

	// 1. 下载
	docs := fetchAll(s, cfg.Sources)

	// 2. 识别 + 归一化
	results := processDocs(docs)

	// 3. 按来源顺序合并去重
	perSource := make([][]Rule, len(results))
	totalRaw := 0
	for i, res := range results {
		perSource[i] = res.Rules
		totalRaw += len(res.Rules)
	}
	merged := mergeRules(perSource)
	fmt.Printf("🧹 合并去重: %d -> %d\n", totalRaw, merged.len())

	// 4. 可选的后缀覆盖裁剪
	if s.Minimize {
		before := merged.len()
		merged = minimizeSuffixes(merged)
		fmt.Printf("🧠 后缀裁剪: %d -> %d\n", before, merged.len())
	}

	// 5. 可选的死链检测
	if s.DNSCheck {
		fmt.Printf("🔍 死链检测 (服务器 %s, 并发 %d)...\n", s.DNSServer, s.DNSConcurrency)
		var removed int
		merged, removed = filterDeadRules(s, merged)
		fmt.Printf("   ✓ 移除 %d 个失效域名，剩余 %d\n", removed, merged.len())
	}

	if merged.len() == 0 {
		fmt.Println("❌ 没有任何来源产出规则，不覆盖现有输出")
		return 1
	}

	// 6. 输出。单个目标写失败不影响其他目标
	now := time.Now()
	sourceNames := make([]string, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		sourceNames = append(sourceNames, src.Name)
	}

	emitTotal, emitFailed := 0, 0
	emitOne := func(name string, err error) {
		emitTotal++
		if err != nil {
			emitFailed++
			fmt.Printf("   ❌ 写入 %s 失败: %v\n", name, err)
			return
		}
		fmt.Printf("   ✓ %s\n", name)
	}

	dir := s.OutputDir
	emitOne("merged_adblock.list",
		emitMergedList(filepath.Join(dir, "merged_adblock.list"), merged, sourceNames, now))
	emitOne("adblock_rules_only.list",
		emitRulesOnly(filepath.Join(dir, "adblock_rules_only.list"), merged, now))
	emitOne("loon_adblock_config.conf",
		emitLoonConfig(filepath.Join(dir, "loon_adblock_config.conf"), merged, s, now))
	emitOne("aggregate-domains.txt",
		emitPlainDomains(filepath.Join(dir, "aggregate-domains.txt"), merged))
	emitOne("index.html",
		emitStatusPage(filepath.Join(dir, "index.html"), results, merged, now))

	if s.Analysis {
		emitOne("rules_overlap_*.csv", writeOverlapReports(dir, results))
	}

	if emitFailed > 0 {
		fmt.Printf("⚠️  有 %d 个输出目标写入失败\n", emitFailed)
	}
	if emitFailed == emitTotal {
		fmt.Println("❌ 所有输出目标都写入失败")
		return 1
	}
	fmt.Printf("🎉 完成! 共 %d 条规则, 耗时 %v\n", merged.len(), time.Since(start).Round(time.Millisecond))
	return 0
}

func main() {
	configPath := flag.String("config", "", "配置文件路径 (默认 config.yaml，缺省用内置来源)")
	outputDir := flag.String("output-dir", "", "输出目录，覆盖配置文件")
	dnsCheck := flag.Bool("dns-check", false, "开启死链检测，覆盖配置文件")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	if *outputDir != "" {
		cfg.Settings.OutputDir = *outputDir
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "dns-check" {
			cfg.Settings.DNSCheck = *dnsCheck
		}
	})

	os.Exit(runPipeline(cfg))
}
