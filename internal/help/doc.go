// Package help locates localized HTML help documents.
//
// Documents live under a root directory, one sub-directory per locale:
//
//	doc/en/macros.html
//	doc/fr/macros.html
//
// Resolve tries the preferred locale, then its base language, then English,
// and returns the first document that exists. A miss is logged at DEBUG and
// reported through the boolean result; it is never an error.
//
// Opening a resolved document is left to a Viewer. Build renders Markdown
// sources into the HTML tree the resolver reads.
package help
