package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PageOptions configures Page.
type PageOptions struct {
	Fetch      *Options
	UseBrowser bool
	// BrowserTimeout bounds a headless render; zero means 30s.
	BrowserTimeout time.Duration
	Logger         *zap.Logger
}

// Page fetches a job posting and returns its readable text, using the board's
// selectors. When enabled, client-rendered boards and pages that yield too
// little text are rendered in a headless browser and extracted again.
func Page(ctx context.Context, rawURL string, opts PageOptions) (*Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	platform := DetectPlatform(rawURL)
	content := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	result, err := URL(ctx, rawURL, opts.Fetch)
	if err != nil {
		return nil, err
	}
	doc, err := ExtractMainText(result.HTML, content, noise...)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to extract text", Cause: err}
	}

	if !opts.UseBrowser || (!IsSPA(platform) && !ShouldUseBrowser(doc.Text)) {
		return doc, nil
	}

	timeout := opts.BrowserTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	html, err := WithBrowser(ctx, rawURL, timeout, logger)
	if err != nil {
		logger.Warn("browser fallback failed, keeping plain fetch",
			zap.String("url", rawURL),
			zap.String("platform", string(platform)),
			zap.Error(err))
		return doc, nil
	}
	rendered, err := ExtractMainText(html, content, noise...)
	if err != nil || len(rendered.Text) < len(doc.Text) {
		return doc, nil
	}
	if rendered.Title == "" {
		rendered.Title = doc.Title
	}
	return rendered, nil
}
