package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func adminRequest(method, baseURL, path string, query url.Values, timeout time.Duration) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, _ := http.NewRequest(method, u, nil)
	cl := &http.Client{Timeout: timeout}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func levelCmd(args []string) {
	fs := flag.NewFlagSet("level", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)
	adminRequest(http.MethodGet, *baseURL, "/admin/v1/level", nil, 5*time.Second)
}

func regenerateCmd(args []string) {
	fs := flag.NewFlagSet("regenerate", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	seed := fs.String("seed", "", "seed (optional)")
	timeout := fs.Duration("timeout", 2*time.Minute, "request timeout")
	_ = fs.Parse(args)

	q := url.Values{}
	if s := strings.TrimSpace(*seed); s != "" {
		q.Set("seed", s)
	}
	adminRequest(http.MethodPost, *baseURL, "/admin/v1/regenerate", q, *timeout)
}

func passesCmd(args []string) {
	fs := flag.NewFlagSet("passes", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := url.Values{}
	q.Set("limit", fmt.Sprint(*limit))
	adminRequest(http.MethodGet, *baseURL, "/admin/v1/passes", q, 5*time.Second)
}
