package snapshot

// captureScript walks the DOM and builds a compact accessibility tree. Each
// addressable element gets a ref (e1, e2, ...) and is stamped with a
// data-ccref attribute so later lookups can target it directly. The return
// value is {tree, refs: {eN: {role, name, nth}}}.
const captureScript = `(() => {
  const implicitRoles = {
    a: 'link', button: 'button', input: 'textbox', textarea: 'textbox',
    select: 'combobox', img: 'img', h1: 'heading', h2: 'heading',
    h3: 'heading', h4: 'heading', h5: 'heading', h6: 'heading',
    nav: 'navigation', main: 'main', header: 'banner', footer: 'contentinfo',
    form: 'form', table: 'table', ul: 'list', ol: 'list', li: 'listitem',
    option: 'option', label: 'text', p: 'text'
  };
  const inputRoles = {
    button: 'button', submit: 'button', reset: 'button', checkbox: 'checkbox',
    radio: 'radio', range: 'slider', search: 'searchbox', file: 'button'
  };

  function roleOf(el) {
    const explicit = el.getAttribute('role');
    if (explicit) return explicit;
    const tag = el.tagName.toLowerCase();
    if (tag === 'input') {
      const type = (el.getAttribute('type') || 'text').toLowerCase();
      return inputRoles[type] || 'textbox';
    }
    return implicitRoles[tag] || '';
  }

  function nameOf(el) {
    const aria = el.getAttribute('aria-label');
    if (aria) return aria.trim();
    const labelledBy = el.getAttribute('aria-labelledby');
    if (labelledBy) {
      const target = document.getElementById(labelledBy.split(/\s+/)[0]);
      if (target) return target.textContent.trim();
    }
    if (el.id) {
      const label = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
      if (label) return label.textContent.trim();
    }
    const placeholder = el.getAttribute('placeholder');
    if (placeholder) return placeholder.trim();
    const alt = el.getAttribute('alt');
    if (alt) return alt.trim();
    const text = (el.textContent || '').trim().replace(/\s+/g, ' ');
    return text.length > 0 && text.length <= 80 ? text : '';
  }

  function visible(el) {
    const rect = el.getBoundingClientRect();
    if (rect.width === 0 && rect.height === 0) return false;
    const style = getComputedStyle(el);
    return style.display !== 'none' && style.visibility !== 'hidden';
  }

  // Drop stale stamps from the previous snapshot.
  for (const el of document.querySelectorAll('[data-ccref]')) {
    el.removeAttribute('data-ccref');
  }

  const interactive = 'a, button, input, textarea, select, option, ' +
    '[role], [onclick], [tabindex], h1, h2, h3, h4, h5, h6, img[alt], label';
  const refs = {};
  const lines = [];
  const counts = {};
  let n = 0;

  for (const el of document.querySelectorAll(interactive)) {
    if (!visible(el)) continue;
    const role = roleOf(el);
    if (!role) continue;
    const name = nameOf(el);

    n += 1;
    const ref = 'e' + n;
    el.setAttribute('data-ccref', ref);

    const key = role + '\u0000' + name;
    const nth = counts[key] || 0;
    counts[key] = nth + 1;

    const entry = { role: role, mode: 'aria' };
    if (name) entry.name = name;
    if (nth > 0) { entry.nth = nth; entry.hasNth = true; }
    refs[ref] = entry;

    let line = '- ' + role;
    if (name) line += ' "' + name + '"';
    line += ' [' + ref + ']';
    const val = el.value;
    if (typeof val === 'string' && val && el.type !== 'password') {
      line += ' value="' + val.slice(0, 40) + '"';
    }
    lines.push(line);
  }

  return { tree: lines.join('\n'), refs: refs, url: location.href, title: document.title };
})()`
