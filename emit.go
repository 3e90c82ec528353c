package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// ---------------- 输出 ----------------

const timeLayout = "2006-01-02 15:04:05"

// writeFileAtomic 先写同目录临时文件再原子替换，
// 中途崩溃不会留下半截产物，上一轮输出保持可用
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// emitMergedList 聚合规则列表（Loon 匹配子句，一行一条）
func emitMergedList(path string, rs *ruleSet, sourceNames []string, now time.Time) error {
	var sb strings.Builder
	sb.WriteString("# 聚合广告拦截规则 - Loon格式\n")
	fmt.Fprintf(&sb, "# 生成时间: %s\n", now.Format(timeLayout))
	fmt.Fprintf(&sb, "# 总规则数: %d\n", rs.len())
	fmt.Fprintf(&sb, "# 规则来源: %s\n", strings.Join(sourceNames, ", "))
	sb.WriteString("\n")

	for _, r := range rs.rules {
		sb.WriteString(r.Clause())
		sb.WriteString("\n")
	}
	return writeFileAtomic(path, []byte(sb.String()))
}

// emitRulesOnly 简化规则文件，可直接作为 Loon 远程规则引用
func emitRulesOnly(path string, rs *ruleSet, now time.Time) error {
	var sb strings.Builder
	sb.WriteString("# 聚合广告拦截规则 - Loon格式\n")
	fmt.Fprintf(&sb, "# 生成时间: %s\n", now.Format(timeLayout))
	sb.WriteString("# 使用方法: 在Loon中添加远程规则，指向此文件\n")
	sb.WriteString("\n")

	for _, r := range rs.rules {
		sb.WriteString(r.Clause())
		sb.WriteString(",REJECT\n")
	}
	return writeFileAtomic(path, []byte(sb.String()))
}

// emitPlainDomains 纯域名列表（关键词规则没有具体域名，不在此输出）
func emitPlainDomains(path string, rs *ruleSet) error {
	var sb strings.Builder
	for _, r := range rs.rules {
		if r.Kind == matchKeyword {
			continue
		}
		sb.WriteString(r.Pattern)
		sb.WriteString("\n")
	}
	return writeFileAtomic(path, []byte(sb.String()))
}

// 完整 Loon 配置模板。[Remote Rule] 的聚合部分由本工具生成，
// 其余推荐规则与 [Rule] 段是固定样板，不参与聚合
var loonConfigTmpl = template.Must(template.New("loon").Parse(`# Loon 广告拦截配置文件
# 自动生成时间: {{.GeneratedAt}}
# 包含 {{.Count}} 条广告拦截规则

[Remote Rule]
# 聚合广告拦截规则
{{range .Rules}}{{.Clause}}, policy=REJECT, tag={{$.Tag}}, enabled=true
{{end}}
# 推荐添加的其他规则
https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/Apple/Apple_Domain.list, policy=DIRECT, tag=Apple_Domain, enabled=true
https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/Apple/Apple.list, policy=DIRECT, tag=Apple, enabled=true
https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/China/China_Domain.list, policy=DIRECT, tag=China-Domain, enabled=true
https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/China/China.list, policy=DIRECT, tag=China, enabled=true
https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/Google/Google.list, policy=PROXY, tag=Google, enabled=true
https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/Microsoft/Microsoft.list, policy=DIRECT, tag=微软, enabled=true
https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Loon/GitHub/GitHub.list, policy=PROXY, tag=GitHub, enabled=true

[Rule]
# 默认规则
FINAL,{{.FinalPolicy}}
`))

// emitLoonConfig 生成完整 Loon 配置
func emitLoonConfig(path string, rs *ruleSet, s Settings, now time.Time) error {
	data := struct {
		GeneratedAt string
		Count       int
		Rules       []Rule
		Tag         string
		FinalPolicy string
	}{
		GeneratedAt: now.Format(timeLayout),
		Count:       rs.len(),
		Rules:       rs.rules,
		Tag:         s.Tag,
		FinalPolicy: s.FinalPolicy,
	}

	var buf bytes.Buffer
	if err := loonConfigTmpl.Execute(&buf, data); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}
