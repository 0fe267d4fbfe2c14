package fetch

import (
	"context"

	"go.uber.org/zap"
)

// JobPage is the text of a job posting fetched from the web
type JobPage struct {
	URL      string
	Platform Platform
	Text     string
	Rendered bool
}

// JobOptions configures JobPosting
type JobOptions struct {
	Fetch *Options
	// UseBrowser renders the page with headless Chrome when the HTTP text is too short
	UseBrowser bool
	Logger     *zap.Logger
}

// JobPosting fetches a job posting and extracts its text using platform-specific
// selectors. With UseBrowser set, short results are retried through Render; a
// failed render keeps the HTTP text.
func JobPosting(ctx context.Context, urlStr string, opts JobOptions) (*JobPage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	platform := DetectPlatform(urlStr)
	contentSelectors := PlatformContentSelectors(platform)
	noiseSelectors := PlatformNoiseSelectors(platform)

	result, err := URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return nil, err
	}

	text, err := ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "content extraction failed", Cause: err}
	}
	logger.Debug("extracted job posting",
		zap.String("url", urlStr),
		zap.String("platform", string(platform)),
		zap.Int("chars", len(text)))

	page := &JobPage{URL: urlStr, Platform: platform, Text: text}
	if !opts.UseBrowser || !ShouldUseBrowser(text) {
		return page, nil
	}

	timeout := DefaultTimeout
	if opts.Fetch != nil && opts.Fetch.Timeout > 0 {
		timeout = opts.Fetch.Timeout
	}
	html, err := Render(ctx, urlStr, timeout, logger)
	if err != nil {
		logger.Warn("browser rendering failed, using HTTP content", zap.String("url", urlStr), zap.Error(err))
		return page, nil
	}
	rendered, err := ExtractMainText(html, contentSelectors, noiseSelectors...)
	if err != nil {
		logger.Warn("browser content extraction failed", zap.String("url", urlStr), zap.Error(err))
		return page, nil
	}
	if len(rendered) > len(page.Text) {
		page.Text = rendered
		page.Rendered = true
	}
	return page, nil
}
