// ABOUTME: Locale-aware help document resolution with fallback to English
// ABOUTME: Returns a validated path or reports a miss without failing the caller

package help

import (
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
)

// Fallback is the locale that is always tried last.
var Fallback = language.English

// Resolver finds help documents under a root directory.
type Resolver struct {
	root   string
	logger *slog.Logger
}

// NewResolver creates a resolver for documents under root. Pass nil logger for default.
func NewResolver(root string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		root:   root,
		logger: logger,
	}
}

// Root returns the documentation root.
func (r *Resolver) Root() string {
	return r.root
}

// Locales returns the locale directories tried for preferred, in order.
func Locales(preferred language.Tag) []string {
	var chain []string
	seen := make(map[string]bool)
	add := func(tag language.Tag) {
		if tag == language.Und {
			return
		}
		s := tag.String()
		if seen[s] {
			return
		}
		seen[s] = true
		chain = append(chain, s)
	}

	add(preferred)
	if base, conf := preferred.Base(); conf != language.No {
		add(language.Make(base.String()))
	}
	add(Fallback)
	return chain
}

// Resolve returns the path of the named document in the first locale of the
// fallback chain that has it. ok is false when no locale has the document.
func (r *Resolver) Resolve(name string, preferred language.Tag) (path string, ok bool) {
	locales := Locales(preferred)
	for _, locale := range locales {
		candidate := filepath.Join(r.root, locale, name+".html")
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		r.logger.Debug("help document resolved", "name", name, "lang", locale)
		return candidate, true
	}

	r.logger.Debug("help document not found", "name", name, "tried", locales)
	return "", false
}
