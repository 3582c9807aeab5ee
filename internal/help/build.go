// ABOUTME: Renders Markdown help sources into the per-locale HTML document tree
// ABOUTME: Uses goldmark; output layout mirrors the source locale directories

package help

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="%s">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// Build renders src/<locale>/<name>.md to dst/<locale>/<name>.html for
// every locale directory in src. It returns the number of documents written.
func Build(src, dst string) (int, error) {
	locales, err := os.ReadDir(src)
	if err != nil {
		return 0, fmt.Errorf("reading help sources: %w", err)
	}

	md := goldmark.New()
	count := 0
	for _, locale := range locales {
		if !locale.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(src, locale.Name()))
		if err != nil {
			return count, fmt.Errorf("reading locale %s: %w", locale.Name(), err)
		}

		outDir := filepath.Join(dst, locale.Name())
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".md")

			source, err := os.ReadFile(filepath.Join(src, locale.Name(), entry.Name()))
			if err != nil {
				return count, fmt.Errorf("reading %s: %w", entry.Name(), err)
			}

			var body bytes.Buffer
			if err := md.Convert(source, &body); err != nil {
				return count, fmt.Errorf("rendering %s/%s: %w", locale.Name(), entry.Name(), err)
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return count, fmt.Errorf("creating %s: %w", outDir, err)
			}
			page := fmt.Sprintf(pageTemplate, html.EscapeString(locale.Name()), html.EscapeString(name), body.String())
			if err := os.WriteFile(filepath.Join(outDir, name+".html"), []byte(page), 0644); err != nil {
				return count, fmt.Errorf("writing %s: %w", name, err)
			}
			count++
		}
	}
	return count, nil
}
