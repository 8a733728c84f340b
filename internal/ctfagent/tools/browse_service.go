package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// BrowseService fetches a page from the challenge's web service with a
// headless browser and returns its rendered text, for challenges whose
// server is interactive (JS-rendered) rather than a static response
// reachable with a plain curl via run_command. Not present in the original,
// which only ever shells out to curl; added because the example pack
// carries a real headless-browser dependency and this is the one domain
// gap it plausibly fills (SPEC_FULL.md Domain Stack).
type BrowseService struct {
	AllocatorOptions []chromedp.ExecAllocatorOption
}

func NewBrowseService() *BrowseService {
	return &BrowseService{
		AllocatorOptions: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.Flag("disable-gpu", true),
		),
	}
}

func (t *BrowseService) Name() string        { return "browse_service" }
func (t *BrowseService) Description() string { return "Render a URL on the challenge's web server with a headless browser and return its text content." }

func (t *BrowseService) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"url":     {Type: tool.ParamString, Description: "Full URL to visit."},
		"timeout": {Type: tool.ParamNumber, Description: "Timeout in seconds (default 30)."},
	}
}

func (t *BrowseService) RequiredParameters() map[string]bool { return map[string]bool{"url": true} }

func (t *BrowseService) Setup(ctx context.Context) error              { return nil }
func (t *BrowseService) Teardown(ctx context.Context, err error) error { return nil }

func (t *BrowseService) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	url, _ := args["url"].(string)
	if url == "" {
		return map[string]any{"error": "No url provided"}, nil
	}
	timeout := 30 * time.Second
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		timeout = time.Duration(v) * time.Second
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, t.AllocatorOptions...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var text string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Text("body", &text, chromedp.NodeVisible),
	)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("browsing %s failed: %v", url, err)}, nil
	}
	return map[string]any{"text": text}, nil
}
