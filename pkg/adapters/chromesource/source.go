package chromesource

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/user/lottie2apng/pkg/lottie"
	"github.com/user/lottie2apng/pkg/ports"
)

// DefaultScriptURL is the lottie-web build loaded when Options.ScriptURL is
// empty.
const DefaultScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/bodymovin/5.12.2/lottie.min.js"

// DefaultLoadTimeout bounds page and animation loading.
const DefaultLoadTimeout = 30 * time.Second

// ErrClosed is returned when seeking a closed source.
var ErrClosed = errors.New("chrome source closed")

// Options configures the Chrome raster source.
type Options struct {
	ChromePath  string        // Explicit executable, otherwise resolved by LookupChrome
	ScriptURL   string        // lottie-web script URL
	LoadTimeout time.Duration // Page load limit
	Headless    bool
}

// Factory launches one headless Chrome per opened source.
type Factory struct {
	doc    *lottie.Document
	opts   Options
	logger ports.Logger
}

// New creates a Factory for doc.
func New(doc *lottie.Document, opts Options, logger ports.Logger) *Factory {
	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultScriptURL
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	return &Factory{doc: doc, opts: opts, logger: logger.WithComponent("chrome")}
}

// Open launches Chrome, loads the player page and waits for the animation
// to be ready. The canvas renders at dpr = scale.
func (f *Factory) Open(ctx context.Context, width, height, scale int) (ports.RasterSource, error) {
	if width <= 0 || height <= 0 || scale <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d (scale %d)", width, height, scale)
	}
	chromePath, origin := LookupChrome(f.opts.ChromePath)
	if chromePath == "" {
		return nil, fmt.Errorf("chrome not found: please install Chrome/Chromium, set CHROME_PATH environment variable, or use --chrome-path option")
	}
	f.logger.Debug("Using Chrome at %s (%s)", chromePath, string(origin))

	docJSON, err := f.doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	page, err := writePlayerPage(playerPage{
		ScriptURL: f.opts.ScriptURL,
		Width:     f.doc.Width,
		Height:    f.doc.Height,
		Scale:     scale,
		Animation: template.JS(docJSON),
	})
	if err != nil {
		return nil, err
	}

	s := &Source{width: width, height: height, pagePath: page, logger: f.logger}
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(chromePath, f.opts.Headless)...)
	s.ctx, s.cancel = chromedp.NewContext(s.allocCtx)

	loadCtx, cancel := context.WithTimeout(s.ctx, f.opts.LoadTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var loadErr string
	err = chromedp.Run(loadCtx,
		emulation.SetDeviceMetricsOverride(int64(f.doc.Width), int64(f.doc.Height), float64(scale), false),
		chromedp.Navigate("file://"+page),
		chromedp.Poll(`window.__state !== "loading"`, nil, chromedp.WithPollingTimeout(f.opts.LoadTimeout)),
		chromedp.Evaluate(`window.__error || ""`, &loadErr),
	)
	if err == nil && loadErr != "" {
		err = fmt.Errorf("player: %s", loadErr)
	}
	if err != nil {
		s.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("load player page: %w", err)
	}
	f.logger.Debug("Chrome player ready at %dx%d", width, height)
	return s, nil
}

// allocatorOptions returns the Chrome flags for rendering in server and
// container environments.
func allocatorOptions(chromePath string, headless bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
		// file:// pages need to fetch the player script.
		chromedp.Flag("allow-file-access-from-files", true),
	}
	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	return opts
}

// Source is a lottie-web canvas player in a dedicated Chrome instance.
type Source struct {
	width, height int
	pagePath      string
	logger        ports.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// SeekAndRender implements ports.RasterSource. getImageData returns
// straight alpha, so the buffer is passed through unchanged.
func (s *Source) SeekAndRender(ctx context.Context, offset int) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var encoded string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf("window.__seek(%d)", offset), &encoded)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("seek frame %d: %w", offset, err)
	}
	return decodeFrame(encoded, s.width, s.height)
}

// decodeFrame decodes the base64 canvas payload and checks its size.
func decodeFrame(encoded string, width, height int) ([]byte, error) {
	pix, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode canvas data: %w", err)
	}
	if want := width * height * 4; len(pix) != want {
		return nil, fmt.Errorf("canvas returned %d bytes, want %d (%dx%d)", len(pix), want, width, height)
	}
	return pix, nil
}

// Close shuts Chrome down and removes the player page. It is safe to call
// more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.cancel != nil {
		s.cancel()
	}
	// Give Chrome a moment to exit before the allocator kills it.
	time.Sleep(100 * time.Millisecond)
	if s.allocCancel != nil {
		s.allocCancel()
	}
	if s.pagePath != "" {
		if err := os.Remove(s.pagePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove player page: %s", err.Error())
		}
	}
	return nil
}

var (
	_ ports.RasterSourceFactory = (*Factory)(nil)
	_ ports.RasterSource        = (*Source)(nil)
)
