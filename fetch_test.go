package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func testFetchSettings() Settings {
	return Settings{
		Timeout:     5,
		Concurrency: 4,
		RetryCount:  0,
		UserAgent:   "test-agent",
	}
}

func TestFetchSourceOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q", got)
		}
		fmt.Fprint(w, "0.0.0.0 ads.example.com\n")
	}))
	defer srv.Close()

	s := testFetchSettings()
	doc := fetchSource(newHTTPClient(s), s, Source{Name: "t", URL: srv.URL})
	if !doc.ok {
		t.Fatalf("fetchSource 失败: %s", doc.errMsg)
	}
	if !strings.Contains(doc.body, "ads.example.com") {
		t.Fatalf("body = %q", doc.body)
	}
}

func TestFetchSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := testFetchSettings()
	doc := fetchSource(newHTTPClient(s), s, Source{Name: "t", URL: srv.URL})
	if doc.ok {
		t.Fatalf("非 2xx 应标记失败")
	}
	if !strings.Contains(doc.errMsg, "500") {
		t.Errorf("errMsg = %q", doc.errMsg)
	}
}

func TestFetchSourceTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}))
	defer srv.Close()

	s := testFetchSettings()
	s.Timeout = 1
	doc := fetchSource(newHTTPClient(s), s, Source{Name: "t", URL: srv.URL})
	if doc.ok {
		t.Fatalf("超时应标记失败")
	}
}

func TestExpandCompositeURL(t *testing.T) {
	plain := "https://example.com/list.txt"
	if got := expandCompositeURL(plain); !reflect.DeepEqual(got, []string{plain}) {
		t.Fatalf("普通链接应原样返回: %v", got)
	}

	composite := "http://script.hub/file/_start_/https://a.example/x.txt/_end_/_start_/https://b.example/y.txt/_end_/merged.list"
	want := []string{"https://a.example/x.txt", "https://b.example/y.txt"}
	if got := expandCompositeURL(composite); !reflect.DeepEqual(got, want) {
		t.Fatalf("expandCompositeURL = %v, want %v", got, want)
	}
}

// 组合来源：分段下载后拼接成一个文档
func TestFetchSourceComposite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			fmt.Fprint(w, "0.0.0.0 a.example.com")
		case "/b":
			fmt.Fprint(w, "0.0.0.0 b.example.com")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	url := "x/_start_/" + srv.URL + "/a/_end_/_start_/" + srv.URL + "/b/_end_/y"
	s := testFetchSettings()
	doc := fetchSource(newHTTPClient(s), s, Source{Name: "t", URL: url})
	if !doc.ok {
		t.Fatalf("组合下载失败: %s", doc.errMsg)
	}

	rules, _ := parseHostsDoc(doc.body)
	if len(rules) != 2 {
		t.Fatalf("rules = %v", rules)
	}
}

// 单个来源失败不影响整批；结果顺序与配置一致，与完成顺序无关
func TestFetchAllOrderAndPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			fmt.Fprint(w, "slow.example.com\n")
		case "/fast":
			fmt.Fprint(w, "fast.example.com\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sources := []Source{
		{Name: "slow", URL: srv.URL + "/slow"},
		{Name: "missing", URL: srv.URL + "/nope"},
		{Name: "fast", URL: srv.URL + "/fast"},
	}
	docs := fetchAll(testFetchSettings(), sources)

	if len(docs) != 3 {
		t.Fatalf("len(docs) = %d", len(docs))
	}
	if docs[0].source.Name != "slow" || !docs[0].ok {
		t.Errorf("docs[0] = %+v", docs[0])
	}
	if docs[1].source.Name != "missing" || docs[1].ok {
		t.Errorf("docs[1] = %+v", docs[1])
	}
	if docs[2].source.Name != "fast" || !docs[2].ok {
		t.Errorf("docs[2] = %+v", docs[2])
	}
}
