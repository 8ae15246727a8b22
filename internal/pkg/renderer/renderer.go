package renderer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrBrowserNotFound means no headless browser binary could be located.
var ErrBrowserNotFound = errors.New("headless browser binary not found")

const (
	EnvChromePath = "CHROME_PATH"

	DefaultWidth       = 1080
	DefaultHeight      = 1350
	DefaultLoadTimeout = 30 * time.Second
	DefaultSettle      = 500 * time.Millisecond
)

// ProbePaths are checked in order when no override is configured.
var ProbePaths = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/snap/bin/chromium",
	"/opt/google/chrome/chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// waitImagesJS resolves once every <img> has either loaded or failed.
const waitImagesJS = `() => Promise.all(Array.from(document.images).map((img) =>
  img.complete ? Promise.resolve() : new Promise((resolve) => {
    img.addEventListener('load', resolve, { once: true });
    img.addEventListener('error', resolve, { once: true });
  })
)).then(() => (document.fonts ? document.fonts.ready : null)).then(() => true)`

// Rasterizer renders a complete HTML document to a PNG.
type Rasterizer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Options configures a Renderer.
type Options struct {
	ChromePath  string
	Width       int
	Height      int
	LoadTimeout time.Duration
	Settle      time.Duration
}

// launchFunc starts a browser and returns its DevTools URL. cleanup stops the process and
// removes its profile; it must be safe to call when err is non-nil.
type launchFunc func(ctx context.Context, bin string) (controlURL string, cleanup func(), err error)

// Renderer launches one browser process per render.
type Renderer struct {
	opts    Options
	log     *zap.Logger
	exists  func(string) bool
	launch  launchFunc
	capture func(ctx context.Context, controlURL, html string) ([]byte, error)
}

// New builds a Renderer; zero options fall back to the post image defaults.
func New(opts Options, log *zap.Logger) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{opts: opts, log: log, exists: fileExists, launch: launchBrowser}
	r.capture = r.capturePage
	return r
}

// Size returns the output image dimensions.
func (r *Renderer) Size() (int, int) {
	return r.opts.Width, r.opts.Height
}

// FindBrowser resolves the browser binary: explicit override, then CHROME_PATH, then the probe list.
func FindBrowser(override string, exists func(string) bool) (string, error) {
	if exists == nil {
		exists = fileExists
	}
	for _, candidate := range []string{override, os.Getenv(EnvChromePath)} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if exists(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("%w: %s", ErrBrowserNotFound, candidate)
	}
	for _, candidate := range ProbePaths {
		if exists(candidate) {
			return candidate, nil
		}
	}
	return "", ErrBrowserNotFound
}

// Render loads html in a fresh headless browser and captures a clipped PNG of the configured size.
// The browser process is torn down on every return path.
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	bin, err := FindBrowser(r.opts.ChromePath, r.exists)
	if err != nil {
		return nil, err
	}

	controlURL, cleanup, err := r.launch(ctx, bin)
	defer cleanup()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return r.capture(ctx, controlURL, html)
}

func launchBrowser(ctx context.Context, bin string) (string, func(), error) {
	l := launcher.New().Bin(bin).Headless(true).Leakless(false).
		Set("disable-gpu").
		Set("hide-scrollbars").
		Set("font-render-hinting", "none")
	if os.Geteuid() == 0 {
		l = l.NoSandbox(true)
	}
	cleanup := func() {
		// Cleanup blocks until the process exits, which never happens if it did not start.
		if l.PID() == 0 {
			_ = os.RemoveAll(l.Get(flags.UserDataDir))
			return
		}
		l.Kill()
		l.Cleanup()
	}
	controlURL, err := l.Context(ctx).Launch()
	return controlURL, cleanup, err
}

func (r *Renderer) capturePage(ctx context.Context, controlURL, html string) ([]byte, error) {
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			r.log.Debug("close browser", zap.Error(cerr))
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.opts.Width,
		Height:            r.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document: %w", err)
	}

	loading := page.Timeout(r.opts.LoadTimeout)
	defer loading.CancelTimeout()
	if err := loading.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if err := loading.WaitIdle(r.opts.LoadTimeout); err != nil {
		return nil, fmt.Errorf("wait idle: %w", err)
	}
	if _, err := loading.Evaluate(rod.Eval(waitImagesJS).ByPromise()); err != nil {
		return nil, fmt.Errorf("wait images: %w", err)
	}

	if r.opts.Settle > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.opts.Settle):
		}
	}

	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  float64(r.opts.Width),
			Height: float64(r.opts.Height),
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
