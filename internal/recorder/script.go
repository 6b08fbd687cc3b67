package recorder

// captureScript is evaluated in the recorded page (and re-injected on every
// navigation). It observes clicks, typing, a few special keys, scrolling,
// and focus changes, building locator descriptors for each target and
// pushing events into window.__ccRecorderEvents. The daemon drains that
// buffer on a timer; beforeunload flushes via sendBeacon since a full-page
// navigation destroys the buffer before the next drain.
//
// The %d verb is the daemon's HTTP port for the beacon endpoint.
const captureScript = `(() => {
  if (window.__ccRecorderActive) return;
  window.__ccRecorderActive = true;
  window.__ccRecorderEvents = window.__ccRecorderEvents || [];
  window.__ccRecorderBeaconPort = %d;

  function cssPath(el) {
    const parts = [];
    while (el && el.nodeType === Node.ELEMENT_NODE && el !== document.body) {
      let part = el.tagName.toLowerCase();
      if (el.id) {
        parts.unshift(part + '#' + CSS.escape(el.id));
        break;
      }
      let nth = 1;
      let sib = el.previousElementSibling;
      while (sib) {
        if (sib.tagName === el.tagName) nth++;
        sib = sib.previousElementSibling;
      }
      parts.unshift(part + ':nth-of-type(' + nth + ')');
      el = el.parentElement;
    }
    return parts.join(' > ');
  }

  function roleOf(el) {
    const explicit = el.getAttribute('role');
    if (explicit) return explicit;
    const tag = el.tagName.toLowerCase();
    if (tag === 'input') {
      const type = (el.getAttribute('type') || 'text').toLowerCase();
      const m = { button: 'button', submit: 'button', reset: 'button',
        checkbox: 'checkbox', radio: 'radio', range: 'slider',
        search: 'searchbox' };
      return m[type] || 'textbox';
    }
    const m = { a: 'link', button: 'button', select: 'combobox',
      textarea: 'textbox', img: 'img', h1: 'heading', h2: 'heading',
      h3: 'heading', h4: 'heading', h5: 'heading', h6: 'heading',
      li: 'listitem', option: 'option' };
    return m[tag] || '';
  }

  function accessibleName(el) {
    const aria = el.getAttribute('aria-label');
    if (aria) return aria.trim();
    const labelledBy = el.getAttribute('aria-labelledby');
    if (labelledBy) {
      const t = document.getElementById(labelledBy.split(/\s+/)[0]);
      if (t) return t.textContent.trim();
    }
    if (el.id) {
      const label = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
      if (label) return label.textContent.trim();
    }
    const placeholder = el.getAttribute('placeholder');
    if (placeholder) return placeholder.trim();
    const alt = el.getAttribute('alt');
    if (alt) return alt.trim();
    return (el.textContent || '').trim().replace(/\s+/g, ' ');
  }

  function buildLocators(el) {
    const locators = [];
    const role = roleOf(el);
    const name = accessibleName(el);
    if (role && name) {
      locators.push({ strategy: 'role', role: role, name: name });
    }
    const text = (el.textContent || '').trim().replace(/\s+/g, ' ');
    if (text.length >= 1 && text.length <= 80) {
      locators.push({ strategy: 'text', text: text });
    }
    const tag = el.tagName.toLowerCase();
    if (el.classList.length > 0) {
      locators.push({
        strategy: 'selector',
        selector: tag + '.' + Array.from(el.classList).map(c => CSS.escape(c)).join('.')
      });
    } else if (el.id) {
      locators.push({ strategy: 'selector', selector: tag + '#' + CSS.escape(el.id) });
    }
    locators.push({ strategy: 'cssPath', path: cssPath(el) });
    return locators;
  }

  function push(ev) {
    window.__ccRecorderEvents.push(ev);
  }

  // Typed input is buffered per element and flushed after 500ms of idle,
  // on focusout, or before a non-text key event.
  let typed = null;
  let typedTimer = null;
  function flushTyped() {
    if (typedTimer) { clearTimeout(typedTimer); typedTimer = null; }
    if (!typed) return;
    push({ type: 'type', locators: typed.locators, value: typed.value });
    typed = null;
  }

  document.addEventListener('input', (e) => {
    const el = e.target;
    if (!el || !('value' in el)) return;
    if (typed && typed.el !== el) flushTyped();
    typed = { el: el, locators: buildLocators(el), value: el.value };
    if (typedTimer) clearTimeout(typedTimer);
    typedTimer = setTimeout(flushTyped, 500);
  }, true);

  document.addEventListener('focusout', () => flushTyped(), true);

  document.addEventListener('click', (e) => {
    const el = e.target.closest('a, button, input, select, textarea, [role], label') || e.target;
    if (el.tagName === 'SELECT') return;
    flushTyped();
    push({ type: 'click', locators: buildLocators(el) });
  }, true);

  document.addEventListener('change', (e) => {
    const el = e.target;
    if (!el || el.tagName !== 'SELECT') return;
    push({ type: 'select', locators: buildLocators(el), value: el.value });
  }, true);

  document.addEventListener('keydown', (e) => {
    if (e.key !== 'Enter' && e.key !== 'Escape' && e.key !== 'Tab') return;
    flushTyped();
    const el = e.target && e.target.nodeType === Node.ELEMENT_NODE ? e.target : null;
    push({ type: 'keypress', key: e.key, locators: el ? buildLocators(el) : [] });
  }, true);

  let scrollTimer = null;
  window.addEventListener('scroll', () => {
    if (scrollTimer) clearTimeout(scrollTimer);
    scrollTimer = setTimeout(() => {
      push({ type: 'scroll', scrollX: window.scrollX, scrollY: window.scrollY });
    }, 300);
  }, true);

  window.addEventListener('beforeunload', () => {
    flushTyped();
    const events = window.__ccRecorderEvents.splice(0);
    if (events.length === 0) return;
    const port = window.__ccRecorderBeaconPort;
    if (!port) return;
    try {
      navigator.sendBeacon('http://127.0.0.1:' + port + '/record/beacon',
        new Blob([JSON.stringify({ events: events })], { type: 'application/json' }));
    } catch (e) {}
  });
})()`

// drainScript empties the in-page event buffer and returns what was there.
const drainScript = `(() => {
  if (!window.__ccRecorderEvents) return [];
  return window.__ccRecorderEvents.splice(0);
})()`

// teardownScript clears recorder state in the page. Best-effort: the page
// may already be gone when recording stops.
const teardownScript = `(() => {
  window.__ccRecorderActive = false;
  window.__ccRecorderEvents = [];
})()`
