// Package capture provides the screenshot collaborators the recorder binds to.
package capture

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// BrowserModule is the module name of the browser collaborator.
const BrowserModule = "WebDriver"

// Browser captures screenshots of the active page of a Chrome instance driven through Rod.
type Browser struct {
	logger     zerolog.Logger
	controlURL string
	fullPage   bool

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	// owned is set when the browser was launched by Connect
	owned  bool
	cancel context.CancelFunc
}

// NewBrowser returns a browser module. An empty controlURL launches a local headless Chrome on Connect.
func NewBrowser(logger zerolog.Logger, controlURL string, fullPage bool) *Browser {
	return &Browser{
		logger:     logger,
		controlURL: controlURL,
		fullPage:   fullPage,
	}
}

func (b *Browser) Name() string {
	return BrowserModule
}

// Connect attaches to the configured browser, launching one if needed.
func (b *Browser) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	connCtx, cancel := context.WithCancel(ctx)

	wsURL := b.controlURL
	if wsURL == "" {
		l := launcher.New().Headless(true).Context(connCtx)
		u, err := l.Launch()
		if err != nil {
			cancel()
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.owned = true
		b.logger.Info().Str("url", wsURL).Msg("Launched local browser")
	} else {
		b.logger.Info().Str("url", wsURL).Msg("Connecting to remote browser")
	}

	browser := rod.New().ControlURL(wsURL).Context(connCtx)
	if err := browser.Connect(); err != nil {
		cancel()
		if b.lnch != nil {
			b.lnch.Kill()
			b.lnch, b.owned = nil, false
		}
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	b.browser = browser
	b.cancel = cancel
	return nil
}

// SaveScreenshot writes a PNG of the first open page to path.
func (b *Browser) SaveScreenshot(ctx context.Context, path string) error {
	b.mu.Lock()
	browser := b.browser
	b.mu.Unlock()
	if browser == nil {
		return fmt.Errorf("browser is not connected")
	}

	page, err := activePage(browser)
	if err != nil {
		return err
	}

	data, err := page.Context(ctx).Screenshot(b.fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("failed to capture page: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// Close disconnects from the browser. Only a browser launched by Connect is
// closed; a remote browser belongs to the host and keeps running.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.owned && b.browser != nil {
		err = b.browser.Close()
	}
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch = nil
	}
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.browser = nil
	b.owned = false
	return err
}

func activePage(browser *rod.Browser) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	if len(pages) > 0 {
		return pages[0], nil
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return page, nil
}
