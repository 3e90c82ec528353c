package main

import (
	"bytes"
	"html/template"
	"time"
)

// ---------------- 状态页 ----------------

// 展示各来源的元信息和更新时间，供静态托管（如 GitHub Pages）直接发布

var statusPageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>聚合广告拦截规则</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 60em; padding: 0 1em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
th { background: #f5f5f5; }
.fail { color: #c00; }
.ok { color: #080; }
</style>
</head>
<body>
<h1>聚合广告拦截规则</h1>
<p>最近更新: {{.GeneratedAt}}</p>
<p>合并前 {{.TotalRaw}} 条，去重后 {{.TotalMerged}} 条。</p>
<table>
<tr><th>来源</th><th>格式</th><th>状态</th><th>规则数</th><th>跳过</th><th>抓取时间</th></tr>
{{range .Sources}}<tr>
<td><a href="{{.URL}}">{{.Name}}</a></td>
<td>{{.Format}}</td>
<td class="{{if .OK}}ok{{else}}fail{{end}}">{{.Status}}</td>
<td>{{.Rules}}</td>
<td>{{.Skipped}}</td>
<td>{{.FetchedAt}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

type pageSourceRow struct {
	Name      string
	URL       string
	Format    string
	OK        bool
	Status    string
	Rules     int
	Skipped   int
	FetchedAt string
}

// renderStatusPage 渲染状态页
func renderStatusPage(results []sourceResult, merged *ruleSet, now time.Time) ([]byte, error) {
	totalRaw := 0
	rows := make([]pageSourceRow, 0, len(results))
	for _, res := range results {
		row := pageSourceRow{
			Name:      res.Source.Name,
			URL:       res.Source.URL,
			Format:    res.Format.String(),
			OK:        res.OK,
			Status:    "正常",
			Rules:     len(res.Rules),
			Skipped:   res.Stats.skipped,
			FetchedAt: res.FetchedAt.Format(timeLayout),
		}
		if !res.OK {
			row.Status = "失败: " + res.ErrMsg
			row.Format = "-"
		}
		totalRaw += len(res.Rules)
		rows = append(rows, row)
	}

	data := struct {
		GeneratedAt string
		TotalRaw    int
		TotalMerged int
		Sources     []pageSourceRow
	}{
		GeneratedAt: now.Format(timeLayout),
		TotalRaw:    totalRaw,
		TotalMerged: merged.len(),
		Sources:     rows,
	}

	var buf bytes.Buffer
	if err := statusPageTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// emitStatusPage 写出 index.html
func emitStatusPage(path string, results []sourceResult, merged *ruleSet, now time.Time) error {
	data, err := renderStatusPage(results, merged, now)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}
