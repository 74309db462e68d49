package chromium

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

const devToolsPrefix = "DevTools listening on "

var errNoBrowser = errors.New("no Chrome or Chromium executable found; set --chrome or CHROME_PATH")

var candidateExecutables = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

var defaultArgs = []string{
	"--headless=new",
	"--disable-gpu",
	"--hide-scrollbars",
	"--mute-audio",
	"--no-first-run",
	"--no-default-browser-check",
	"--disable-extensions",
	"--disable-background-networking",
	"--remote-debugging-port=0",
}

// FindExecutable resolves the browser binary: explicit path, then
// CHROME_PATH, then well-known names on PATH.
func FindExecutable(explicit string) (string, error) {
	if explicit != "" {
		return exec.LookPath(explicit)
	}
	if env := os.Getenv("CHROME_PATH"); env != "" {
		return exec.LookPath(env)
	}
	for _, name := range candidateExecutables {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", errNoBrowser
}

type browser struct {
	cmd     *exec.Cmd
	conn    *conn
	dataDir string
}

func launch(ctx context.Context, execPath string, extraArgs []string) (*browser, error) {
	dataDir, err := os.MkdirTemp("", "critical-chromium-")
	if err != nil {
		return nil, fmt.Errorf("error creating browser profile dir: %w", err)
	}

	args := append(append([]string{}, defaultArgs...), "--user-data-dir="+dataDir)
	args = append(args, extraArgs...)
	args = append(args, "about:blank")

	// The browser outlives the launching request, so it is not bound to ctx.
	cmd := exec.Command(execPath, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		os.RemoveAll(dataDir)
		return nil, fmt.Errorf("error piping browser stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dataDir)
		return nil, fmt.Errorf("error starting browser: %w", err)
	}

	b := &browser{cmd: cmd, dataDir: dataDir}

	wsURL, err := readDevToolsURL(ctx, stderr)
	if err != nil {
		b.kill()
		return nil, err
	}
	b.conn, err = dial(ctx, wsURL)
	if err != nil {
		b.kill()
		return nil, err
	}
	return b, nil
}

// readDevToolsURL scans the browser's stderr for the websocket endpoint and
// keeps draining it afterwards so the browser never blocks on a full pipe.
func readDevToolsURL(ctx context.Context, r io.Reader) (string, error) {
	found := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		sent := false
		for scanner.Scan() {
			line := scanner.Text()
			if !sent && strings.HasPrefix(line, devToolsPrefix) {
				found <- strings.TrimSpace(strings.TrimPrefix(line, devToolsPrefix))
				sent = true
			}
		}
		if !sent {
			close(found)
		}
	}()

	select {
	case url, ok := <-found:
		if !ok {
			return "", errors.New("browser exited before exposing a devtools endpoint")
		}
		return url, nil
	case <-ctx.Done():
		return "", fmt.Errorf("error waiting for devtools endpoint: %w", ctx.Err())
	}
}

func (b *browser) close() error {
	if b.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = b.conn.call(ctx, "", "Browser.close", nil, nil)
		cancel()
		_ = b.conn.close()
	}

	if b.cmd != nil {
		exited := make(chan error, 1)
		go func() { exited <- b.cmd.Wait() }()
		select {
		case <-exited:
		case <-time.After(5 * time.Second):
			_ = b.cmd.Process.Kill()
			<-exited
		}
	}
	return os.RemoveAll(b.dataDir)
}

func (b *browser) kill() {
	if b.cmd != nil {
		_ = b.cmd.Process.Kill()
		_ = b.cmd.Wait()
	}
	os.RemoveAll(b.dataDir)
}
