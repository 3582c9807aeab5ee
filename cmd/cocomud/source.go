// ABOUTME: HTTP update source publishing a build number and one archive per build
// ABOUTME: Reports download progress as a percentage of Content-Length

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// httpSource reads <base>/latest and downloads <base>/cocomud-<build>.zip.
type httpSource struct {
	base   string
	dir    string
	client *http.Client
}

func newHTTPSource(base, dir string) *httpSource {
	return &httpSource{
		base:   strings.TrimSuffix(base, "/"),
		dir:    dir,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (s *httpSource) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return resp, nil
}

// Latest returns the newest published build.
func (s *httpSource) Latest(ctx context.Context) (int, error) {
	resp, err := s.get(ctx, "/latest")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("reading latest build: %w", err)
	}
	build, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("parsing latest build %q: %w", body, err)
	}
	return build, nil
}

// Download saves the archive for build into the update directory.
func (s *httpSource) Download(ctx context.Context, build int, progress func(percent int)) error {
	name := fmt.Sprintf("cocomud-%d.zip", build)
	resp, err := s.get(ctx, "/"+name)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating update directory: %w", err)
	}
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	pw := &progressWriter{total: resp.ContentLength, report: progress}
	progress(0)
	if _, err := io.Copy(f, io.TeeReader(resp.Body, pw)); err != nil {
		return fmt.Errorf("downloading archive: %w", err)
	}
	progress(100)
	return f.Close()
}

// progressWriter counts bytes and reports the running percentage.
type progressWriter struct {
	total   int64
	written int64
	report  func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		p.report(int(p.written * 100 / p.total))
	}
	return len(b), nil
}
