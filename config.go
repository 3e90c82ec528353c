package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------- 配置结构 ----------------

// Settings 全局运行参数
type Settings struct {
	OutputDir      string `yaml:"output_dir"`      // 输出目录
	Timeout        int    `yaml:"timeout"`         // 单次下载超时（秒）
	Concurrency    int    `yaml:"concurrency"`     // 下载并发数
	RetryCount     int    `yaml:"retry_count"`     // 下载失败重试次数
	UserAgent      string `yaml:"user_agent"`      // 请求 UA
	DNSCheck       bool   `yaml:"dns_check"`       // 是否开启死链检测
	DNSServer      string `yaml:"dns_server"`      // 检测用 DNS 服务器
	DNSConcurrency int    `yaml:"dns_concurrency"` // 检测并发数
	DNSQPS         int    `yaml:"dns_qps"`         // 检测限速（每秒查询数）
	Minimize       bool   `yaml:"minimize"`        // 是否按后缀规则裁剪被覆盖的子域名
	Analysis       bool   `yaml:"analysis"`        // 是否输出来源重叠分析 CSV
	Tag            string `yaml:"tag"`             // Loon 规则 tag
	FinalPolicy    string `yaml:"final_policy"`    // 完整配置的 FINAL 策略
}

// Source 单个规则来源。Format 留空时自动识别格式
type Source struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Format string `yaml:"format"` // hosts / adblock / surge / plain
}

type Config struct {
	Settings Settings `yaml:"settings"`
	Sources  []Source `yaml:"sources"`
}

// loadConfig 读取配置文件。文件不存在时直接使用内置默认配置，
// 这样在干净环境下无参数也能完整跑一轮
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			setDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %v", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("配置文件解析失败: %v", err)
	}

	setDefaults(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %v", err)
	}
	return cfg, nil
}

// setDefaults 填充默认值
func setDefaults(cfg *Config) {
	s := &cfg.Settings
	if s.OutputDir == "" {
		s.OutputDir = "rules"
	}
	if s.Timeout == 0 {
		s.Timeout = 30
	}
	if s.Concurrency == 0 {
		s.Concurrency = 8
	}
	if s.RetryCount == 0 {
		s.RetryCount = 1
	}
	if s.UserAgent == "" {
		s.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if s.DNSServer == "" {
		s.DNSServer = "223.5.5.5:53"
	}
	if s.DNSConcurrency == 0 {
		s.DNSConcurrency = 200
	}
	if s.DNSQPS == 0 {
		s.DNSQPS = 250
	}
	if s.Tag == "" {
		s.Tag = "聚合广告拦截"
	}
	if s.FinalPolicy == "" {
		s.FinalPolicy = "DIRECT"
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources()
	}
}

// validateConfig 校验配置
func validateConfig(cfg *Config) error {
	if cfg.Settings.Timeout < 0 {
		return fmt.Errorf("timeout 不能为负数")
	}
	for _, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("来源缺少 name 字段")
		}
		if src.URL == "" {
			return fmt.Errorf("来源 %s 缺少 url 字段", src.Name)
		}
		if src.Format != "" {
			if _, ok := formatFromHint(src.Format); !ok {
				return fmt.Errorf("来源 %s 的 format 无效: %s", src.Name, src.Format)
			}
		}
	}
	return nil
}

// defaultSources 内置规则来源表
func defaultSources() []Source {
	return []Source{
		{Name: "1Hosts_Lite", URL: "https://badmojr.github.io/1Hosts/Lite/adblock.txt"},
		{Name: "hBlock", URL: "https://hblock.molinero.dev/hosts_adblock.txt"},
		{Name: "Multi_NORMAL", URL: "https://cdn.jsdelivr.net/gh/hagezi/dns-blocklists@latest/adblock/multi.txt"},
		{Name: "Fanboy-CookieMonster", URL: "https://secure.fanboy.co.nz/fanboy-cookiemonster.txt"},
		{Name: "EasylistChina", URL: "https://easylist-downloads.adblockplus.org/easylistchina.txt"},
		{Name: "AdGuardSDNSFilter", URL: "https://adguardteam.github.io/AdGuardSDNSFilter/Filters/filter.txt"},
		{Name: "rejectAd", URL: "https://raw.githubusercontent.com/fmz200/wool_scripts/main/Loon/rule/rejectAd.list", Format: "surge"},
		{Name: "Advertising_Domain", URL: "https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/Advertising/Advertising_Domain.list", Format: "surge"},
		{Name: "Advertising", URL: "https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/Advertising/Advertising.list", Format: "surge"},
		{Name: "anti_ad", URL: "https://anti-ad.net/surge2.txt", Format: "surge"},
	}
}
