package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// LoginURL joins baseURL and loginPath and preserves next as the return target.
//
// next is omitted when empty.
func LoginURL(baseURL, loginPath, next string) string {
	if loginPath == "" {
		loginPath = "/login"
	}
	u := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(loginPath, "/")
	if next == "" {
		return u
	}
	return u + "?" + url.Values{"next": {next}}.Encode()
}
