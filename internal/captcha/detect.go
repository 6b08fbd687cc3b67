// Package captcha detects and solves the common CAPTCHA families: a cheap
// DOM probe first, then vision-assisted classification and solvers for
// anything the probe cannot name.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// CAPTCHA type names shared by the probe, the classifier, and the solvers.
const (
	TypeRecaptchaV2    = "recaptcha_v2"
	TypeRecaptchaImage = "recaptcha_image"
	TypeHCaptcha       = "hcaptcha"
	TypeTurnstile      = "cloudflare_turnstile"
	TypeInterstitial   = "cloudflare_interstitial"
	TypeSlider         = "slider"
	TypeImageGrid      = "image_grid"
	TypeText           = "text_captcha"
)

// Detection is the result of either detection tier.
type Detection struct {
	Detected bool   `json:"detected"`
	Type     string `json:"type,omitempty"`
	Selector string `json:"selector,omitempty"`
}

// detectScript is the Tier-1 DOM probe. It checks marker elements for each
// family in priority order and reports the first hit.
const detectScript = `(() => {
  const title = (document.title || '').toLowerCase();
  if (title.includes('just a moment') || title.includes('attention required')) {
    return { detected: true, type: 'cloudflare_interstitial', selector: '' };
  }
  const probes = [
    { type: 'recaptcha_image', sel: 'iframe[src*="recaptcha"][src*="bframe"]' },
    { type: 'recaptcha_v2', sel: 'iframe[src*="recaptcha"][src*="anchor"], .g-recaptcha, #g-recaptcha' },
    { type: 'hcaptcha', sel: 'iframe[src*="hcaptcha.com"], .h-captcha' },
    { type: 'cloudflare_turnstile', sel: 'iframe[src*="challenges.cloudflare.com"], .cf-turnstile' },
    { type: 'slider', sel: '.slider-captcha, .sliderContainer, [class*="slider"][class*="captcha" i], .geetest_slider_button' },
    { type: 'image_grid', sel: '[class*="captcha" i] img[class*="grid" i], .captcha-grid, [class*="image-select" i]' },
    { type: 'text_captcha', sel: 'img[src*="captcha" i] ~ input, canvas[class*="captcha" i], img[class*="captcha" i]' }
  ];
  for (const p of probes) {
    try {
      const el = document.querySelector(p.sel);
      if (el) {
        const r = el.getBoundingClientRect();
        if (r.width > 0 || r.height > 0) {
          return { detected: true, type: p.type, selector: p.sel };
        }
      }
    } catch (e) {}
  }
  return { detected: false };
})()`

// Detect runs the Tier-1 DOM probe in the page.
func Detect(ctx context.Context) (Detection, error) {
	var det Detection
	if err := chromedp.Run(ctx, chromedp.Evaluate(detectScript, &det)); err != nil {
		return Detection{}, err
	}
	return det, nil
}

const classifyPrompt = `Look at this screenshot and decide whether it shows a CAPTCHA challenge.
Respond with JSON only, no prose: {"detected": true|false, "type": "<one of:
recaptcha_v2, recaptcha_image, hcaptcha, cloudflare_turnstile,
cloudflare_interstitial, slider, image_grid, text_captcha>", "selector": ""}.
If there is no CAPTCHA, respond {"detected": false}.`

// DetectWithVision classifies a screenshot when the DOM probe found nothing.
func DetectWithVision(ctx context.Context, analyzer Analyzer, screenshot []byte) (Detection, error) {
	if analyzer == nil {
		return Detection{}, fmt.Errorf("%w: no analyzer configured", models.ErrVisionBackend)
	}
	reply, err := analyzer.Analyze(ctx, screenshot, classifyPrompt)
	if err != nil {
		return Detection{}, err
	}
	var det Detection
	if err := json.Unmarshal([]byte(StripFences(reply)), &det); err != nil {
		return Detection{}, fmt.Errorf("%w: unparseable classification %q", models.ErrVisionBackend, reply)
	}
	return det, nil
}
