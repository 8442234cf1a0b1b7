package browse

// Injected page scripts. Each returns a JSON string so results decode with
// one pass on the Go side.

// domTreeScript walks the body subtree and serializes every visible element
// with its geometry, visibility style, and a stable CSS selector. Nodes that
// are invisible, out of viewport (50px margin), or empty leaves are dropped.
const domTreeScript = `() => {
	const margin = 50;
	const vw = window.innerWidth, vh = window.innerHeight;

	function uniqueSelector(elem) {
		if (!elem || elem.nodeType !== 1) return '';
		if (elem.id) return '#' + elem.id;
		const path = [];
		while (elem && elem.nodeType === 1) {
			if (elem.id) { path.unshift('#' + elem.id); break; }
			let sel = elem.tagName.toLowerCase();
			const siblings = Array.from(elem.parentNode?.children || [])
				.filter(e => e.tagName === elem.tagName);
			if (siblings.length > 1) {
				sel += ':nth-child(' + (siblings.indexOf(elem) + 1) + ')';
			}
			path.unshift(sel);
			elem = elem.parentNode;
			if (!elem || elem === document.body) break;
		}
		return path.join(' > ');
	}

	function directText(elem, tag) {
		if (tag === 'input') return elem.placeholder || elem.value || '';
		if (tag === 'img') return elem.alt || elem.title || '';
		let text = '';
		for (const node of elem.childNodes) {
			if (node.nodeType !== 3) continue;
			const trimmed = node.textContent.trim();
			if (trimmed) text += (text ? ' ' : '') + trimmed;
		}
		return text || elem.getAttribute('aria-label') || elem.getAttribute('title') || '';
	}

	function properties(elem) {
		const tag = elem.tagName ? elem.tagName.toLowerCase() : '';
		let rect;
		try { rect = elem.getBoundingClientRect(); }
		catch (e) { rect = { left: 0, top: 0, width: 0, height: 0 }; }
		const style = window.getComputedStyle(elem);
		return {
			tagName: tag,
			text: directText(elem, tag),
			href: elem.href || '',
			src: elem.src || elem.getAttribute('src') || '',
			position: {
				x: Math.round(rect.left),
				y: Math.round(rect.top),
				width: Math.round(rect.width),
				height: Math.round(rect.height)
			},
			visibility: {
				display: style.display,
				visibility: style.visibility,
				opacity: style.opacity
			},
			selector: uniqueSelector(elem)
		};
	}

	function visible(props) {
		const v = props.visibility, p = props.position;
		if (v.display === 'none' || v.visibility === 'hidden' || v.opacity === '0') return false;
		if (p.width <= 0 || p.height <= 0) return false;
		if (p.x + p.width < -margin || p.y + p.height < -margin) return false;
		if (p.x > vw + margin || p.y > vh + margin) return false;
		return true;
	}

	function walk(elem) {
		const props = properties(elem);
		if (!visible(props)) return null;
		const children = [];
		for (const child of elem.children) {
			const node = walk(child);
			if (node) children.push(node);
		}
		if (!props.text.trim() && children.length === 0) return null;
		return { properties: props, children: children };
	}

	const body = walk(document.body);
	return JSON.stringify({ type: 'root', children: body ? [body] : [] });
}`

// clickableScanScript finds interactive candidates heuristically: standard
// form controls and anchors plus anything carrying a click affordance.
const clickableScanScript = `() => {
	const seen = new Set();
	const out = [];
	const candidates = document.querySelectorAll(
		'a, button, input, select, textarea, [role="button"], [role="link"], [onclick]');

	function uniqueSelector(elem) {
		if (!elem || elem.nodeType !== 1) return '';
		if (elem.id) return '#' + elem.id;
		const path = [];
		while (elem && elem.nodeType === 1) {
			if (elem.id) { path.unshift('#' + elem.id); break; }
			let sel = elem.tagName.toLowerCase();
			const siblings = Array.from(elem.parentNode?.children || [])
				.filter(e => e.tagName === elem.tagName);
			if (siblings.length > 1) {
				sel += ':nth-child(' + (siblings.indexOf(elem) + 1) + ')';
			}
			path.unshift(sel);
			elem = elem.parentNode;
			if (!elem || elem === document.body) break;
		}
		return path.join(' > ');
	}

	for (const elem of candidates) {
		if (seen.has(elem)) continue;
		seen.add(elem);
		const rect = elem.getBoundingClientRect();
		if (rect.width <= 0 || rect.height <= 0) continue;
		const style = window.getComputedStyle(elem);
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		const tag = elem.tagName.toLowerCase();
		let text = (elem.innerText || '').trim();
		if (!text && tag === 'input') text = elem.placeholder || elem.value || '';
		if (!text && tag === 'img') text = elem.alt || '';
		if (!text) text = elem.getAttribute('aria-label') || '';
		out.push({
			tag: tag,
			text: text,
			rect: {
				left: rect.left,
				top: rect.top,
				width: rect.width,
				height: rect.height
			},
			href: elem.href || '',
			src: elem.src || '',
			selector: uniqueSelector(elem)
		});
	}
	return JSON.stringify(out);
}`

// viewportScript reports the logical viewport size.
const viewportScript = `() => JSON.stringify({
	width: window.innerWidth,
	height: window.innerHeight
})`

// computedStyleScript reads the style fields the hover detector compares.
const computedStyleScript = `(sel) => {
	const elem = document.querySelector(sel);
	if (!elem) return JSON.stringify(null);
	const style = window.getComputedStyle(elem);
	return JSON.stringify({
		width: style.width,
		height: style.height,
		opacity: style.opacity,
		cursor: style.cursor
	});
}`
