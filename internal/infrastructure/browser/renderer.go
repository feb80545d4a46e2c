package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"GuidelineScanner/internal/config"
	"GuidelineScanner/internal/ports"
)

// ChromeRenderer renders pages in a headless Chrome instance. Each call gets
// its own browser context that is torn down before the call returns,
// whatever the outcome.
type ChromeRenderer struct {
	cfg config.BrowserConfig
}

var _ ports.Renderer = (*ChromeRenderer)(nil)

// NewChromeRenderer configures the renderer with page-load bounds.
func NewChromeRenderer(cfg config.BrowserConfig) *ChromeRenderer {
	return &ChromeRenderer{cfg: cfg}
}

// RenderHTML navigates to the page, waits up to the ready timeout for the
// document body, lets client-side rendering settle for a fixed delay, and
// returns the rendered markup.
func (r *ChromeRenderer) RenderHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	loadCtx, cancelLoad := context.WithTimeout(tabCtx, r.cfg.LoadTimeout.Std())
	defer cancelLoad()

	var html string
	err := chromedp.Run(loadCtx,
		chromedp.Navigate(pageURL),
		r.waitBodyReady(),
		chromedp.Sleep(r.cfg.SettleDelay.Std()),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}

	return html, nil
}

// waitBodyReady bounds the readiness wait separately from the overall page
// load: a page whose body never appears should fail fast, not hold the tab
// open for the full load timeout.
func (r *ChromeRenderer) waitBodyReady() chromedp.ActionFunc {
	return func(ctx context.Context) error {
		readyCtx, cancel := context.WithTimeout(ctx, r.cfg.ReadyTimeout.Std())
		defer cancel()

		if err := chromedp.WaitReady("body", chromedp.ByQuery).Do(readyCtx); err != nil {
			return fmt.Errorf("wait for body: %w", err)
		}
		return nil
	}
}
