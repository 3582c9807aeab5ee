// ABOUTME: Viewer boundary for presenting resolved help documents
// ABOUTME: SystemViewer hands the file to the platform's default opener

package help

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Viewer presents a resolved document to the user.
type Viewer interface {
	Open(path string) error
}

// ViewerFunc adapts a function to the Viewer interface.
type ViewerFunc func(path string) error

// Open calls f(path).
func (f ViewerFunc) Open(path string) error {
	return f(path)
}

// SystemViewer opens documents with the operating system's default handler.
type SystemViewer struct{}

// Open starts the platform opener for path without waiting for it to exit.
func (SystemViewer) Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	// Reap the child in the background.
	go func() { _ = cmd.Wait() }()
	return nil
}
