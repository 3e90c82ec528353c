package main

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ---------------- 下载 ----------------

// document 单个来源的一次抓取结果，只在本轮运行内存活
type document struct {
	source    Source
	body      string
	fetchedAt time.Time
	ok        bool
	errMsg    string
}

// Script Hub 组合链接: .../_start_/原始URL/_end_/...，可重复出现多段
var scriptHubRe = regexp.MustCompile(`_start_/(.*?)/_end_`)

// expandCompositeURL 从 Script Hub 组合链接里提取各段原始 URL。
// 普通链接原样返回
func expandCompositeURL(url string) []string {
	matches := scriptHubRe.FindAllStringSubmatch(url, -1)
	if len(matches) == 0 {
		return []string{url}
	}
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			urls = append(urls, m[1])
		}
	}
	if len(urls) == 0 {
		return []string{url}
	}
	return urls
}

// newHTTPClient 带超时的下载客户端
func newHTTPClient(s Settings) *http.Client {
	return &http.Client{Timeout: time.Duration(s.Timeout) * time.Second}
}

// httpGetText 单次请求，非 2xx 视为失败
func httpGetText(client *http.Client, url, userAgent string) (string, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// fetchURL 带重试的下载
func fetchURL(client *http.Client, s Settings, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(2 * time.Second)
		}
		body, err := httpGetText(client, url, s.UserAgent)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// fetchSource 抓取一个来源。组合链接会展开成多段分别下载后拼接，
// 任何失败都不会中断整批，只把该来源标记为失败
func fetchSource(client *http.Client, s Settings, src Source) document {
	doc := document{source: src, fetchedAt: time.Now()}

	var parts []string
	for _, u := range expandCompositeURL(src.URL) {
		body, err := fetchURL(client, s, u)
		if err != nil {
			doc.errMsg = fmt.Sprintf("%s: %v", u, err)
			return doc
		}
		parts = append(parts, body)
	}

	doc.body = strings.Join(parts, "\n")
	doc.ok = true
	return doc
}

// fetchAll 并发抓取全部来源。结果按配置顺序排列，与下载完成顺序无关
func fetchAll(s Settings, sources []Source) []document {
	client := newHTTPClient(s)
	docs := make([]document, len(sources))

	conc := s.Concurrency
	if conc <= 0 {
		conc = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, conc) // 限制下载并发，防封IP

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, src Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			docs[idx] = fetchSource(client, s, src)
		}(i, src)
	}
	wg.Wait()

	return docs
}
