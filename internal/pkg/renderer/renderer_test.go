package renderer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existsIn(paths ...string) func(string) bool {
	set := map[string]bool{}
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestFindBrowserOverride(t *testing.T) {
	t.Setenv(EnvChromePath, "")
	bin, err := FindBrowser("/custom/chrome", existsIn("/custom/chrome", ProbePaths[0]))
	require.NoError(t, err)
	assert.Equal(t, "/custom/chrome", bin)
}

func TestFindBrowserEnvOverride(t *testing.T) {
	t.Setenv(EnvChromePath, "/env/chrome")
	bin, err := FindBrowser("", existsIn("/env/chrome"))
	require.NoError(t, err)
	assert.Equal(t, "/env/chrome", bin)

	_, err = FindBrowser("", existsIn(ProbePaths[0]))
	assert.ErrorIs(t, err, ErrBrowserNotFound)
}

func TestFindBrowserProbeOrder(t *testing.T) {
	t.Setenv(EnvChromePath, "")
	bin, err := FindBrowser("", existsIn(ProbePaths[3], ProbePaths[1]))
	require.NoError(t, err)
	assert.Equal(t, ProbePaths[1], bin)
}

func TestFindBrowserNone(t *testing.T) {
	t.Setenv(EnvChromePath, "")
	_, err := FindBrowser("", existsIn())
	assert.ErrorIs(t, err, ErrBrowserNotFound)
}

func TestRenderWithoutBrowser(t *testing.T) {
	t.Setenv(EnvChromePath, "")
	r := New(Options{}, nil)
	r.exists = existsIn()

	png, err := r.Render(context.Background(), "<html></html>")
	assert.ErrorIs(t, err, ErrBrowserNotFound)
	assert.Nil(t, png)

	w, h := r.Size()
	assert.Equal(t, 1080, w)
	assert.Equal(t, 1350, h)
}

type launchSpy struct {
	cleanups atomic.Int32
}

func (s *launchSpy) fake(controlURL string, err error) launchFunc {
	return func(context.Context, string) (string, func(), error) {
		return controlURL, func() { s.cleanups.Add(1) }, err
	}
}

func (s *launchSpy) wrap(next launchFunc) launchFunc {
	return func(ctx context.Context, bin string) (string, func(), error) {
		url, cleanup, err := next(ctx, bin)
		return url, func() {
			cleanup()
			s.cleanups.Add(1)
		}, err
	}
}

func newStubRenderer() *Renderer {
	r := New(Options{ChromePath: "/stub/chrome"}, nil)
	r.exists = existsIn("/stub/chrome")
	return r
}

func TestRenderCleansUpWhenCaptureFails(t *testing.T) {
	spy := &launchSpy{}
	r := newStubRenderer()
	r.launch = spy.fake("ws://127.0.0.1:1", nil)
	errScreenshot := errors.New("screenshot: target closed")
	r.capture = func(context.Context, string, string) ([]byte, error) { return nil, errScreenshot }

	png, err := r.Render(context.Background(), "<p>oi</p>")
	assert.ErrorIs(t, err, errScreenshot)
	assert.Nil(t, png)
	assert.Equal(t, int32(1), spy.cleanups.Load())
}

func TestRenderCleansUpWhenLaunchFails(t *testing.T) {
	spy := &launchSpy{}
	r := newStubRenderer()
	r.launch = spy.fake("", errors.New("exec: permission denied"))
	r.capture = func(context.Context, string, string) ([]byte, error) {
		t.Fatal("capture must not run after a failed launch")
		return nil, nil
	}

	_, err := r.Render(context.Background(), "<p>oi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch browser")
	assert.Equal(t, int32(1), spy.cleanups.Load())
}

func TestRenderCleansUpWhenConnectFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	spy := &launchSpy{}
	r := newStubRenderer()
	r.launch = spy.fake("ws://"+strings.TrimPrefix(srv.URL, "http://"), nil)

	_, err := r.Render(context.Background(), "<p>oi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect browser")
	assert.Equal(t, int32(1), spy.cleanups.Load())
}

func requireBrowser(t *testing.T) {
	t.Helper()
	if _, err := FindBrowser("", nil); err != nil {
		t.Skip("no headless browser available")
	}
}

func TestRenderWithBrowser(t *testing.T) {
	requireBrowser(t)
	spy := &launchSpy{}
	r := New(Options{Width: 320, Height: 200, Settle: time.Millisecond}, nil)
	r.launch = spy.wrap(launchBrowser)

	png, err := r.Render(context.Background(), `<html><body style="background:#c2410c">oi</body></html>`)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	assert.Equal(t, int32(1), spy.cleanups.Load())
}

func TestRenderWithBrowserStopsOnLoadTimeout(t *testing.T) {
	requireBrowser(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	spy := &launchSpy{}
	r := New(Options{LoadTimeout: 500 * time.Millisecond}, nil)
	r.launch = spy.wrap(launchBrowser)

	_, err := r.Render(context.Background(), `<img src="`+srv.URL+`/slow.png">`)
	require.Error(t, err)
	// the wrapped cleanup only returns once the browser process has exited
	assert.Equal(t, int32(1), spy.cleanups.Load())
}
