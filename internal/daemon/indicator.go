package daemon

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// indicatorTemplate draws a thin banner naming the automated workspace so a
// human watching the window knows which identity is in use. The %s
// placeholder receives a JSON-quoted label.
const indicatorTemplate = `(() => {
	const label = %s;
	let bar = document.getElementById('__cc_workspace_indicator');
	if (!bar) {
		bar = document.createElement('div');
		bar.id = '__cc_workspace_indicator';
		bar.style.cssText = 'position:fixed;top:0;left:0;right:0;height:22px;' +
			'z-index:2147483646;background:#7c3aed;color:#fff;' +
			'font:12px/22px system-ui,sans-serif;text-align:center;' +
			'pointer-events:none;opacity:0.92;';
		const attach = () => { if (document.body) document.body.appendChild(bar); };
		if (document.body) attach();
		else document.addEventListener('DOMContentLoaded', attach, { once: true });
	}
	bar.textContent = '⚡ automated — ' + label;
	return true;
})()`

// injectIndicator shows the workspace banner in the current tab. Stealth mode
// and workspaces with the indicator turned off skip it.
func (d *Daemon) injectIndicator(ctx context.Context, mode models.Mode) {
	if mode == models.ModeStealth {
		return
	}
	d.mu.Lock()
	ws := d.wsDesc
	d.mu.Unlock()
	if ws == nil || !ws.Indicator {
		return
	}

	label := ws.DisplayName
	if label == "" {
		label = ws.Name
	}
	quoted, err := json.Marshal(label)
	if err != nil {
		return
	}
	script := fmt.Sprintf(indicatorTemplate, string(quoted))
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, nil)); err != nil {
		log.Debug().Err(err).Msg("Indicator injection failed")
	}
}
