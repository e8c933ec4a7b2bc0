package oauth

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserOpener opens a URL in the user's external browser. The consent page
// is never rendered inside the application.
type BrowserOpener interface {
	Open(ctx context.Context, url string) error
}

// BrowserFunc adapts a plain function to BrowserOpener.
type BrowserFunc func(ctx context.Context, url string) error

func (f BrowserFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// SystemBrowser launches the platform URL handler.
type SystemBrowser struct{}

func (SystemBrowser) Open(_ context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
