package reference

import "fmt"

// In-page scripts for the travel search engine's results page. Every
// function injected stays free of outer-scope closures so it serializes
// cleanly across the automation boundary.

// openPickerJS opens the date-picker control.
const openPickerJS = `
(()=>{
	const el = document.querySelector('[data-testid="date-picker-trigger"], button[aria-label*="dates" i]');
	if (!el) return false;
	el.click();
	return true;
})()
`

// clickDateCellJS clicks the calendar cell whose accessible label matches the
// long-form date, e.g. "November 26, 2025".
func clickDateCellJS(longLabel string) string {
	return fmt.Sprintf(`
(()=>{
	const label = %q;
	const cell = document.querySelector('[aria-label="' + label + '"]')
		|| Array.from(document.querySelectorAll('[role="gridcell"], [role="button"]'))
			.find(el => (el.getAttribute('aria-label') || '').includes(label));
	if (!cell) return false;
	cell.click();
	return true;
})()
`, longLabel)
}

// confirmPickerJS applies the picker selection.
const confirmPickerJS = `
(()=>{
	const el = document.querySelector('[data-testid="date-picker-apply"], button[aria-label*="apply" i], button[aria-label*="done" i]');
	if (el) el.click();
	return !!el;
})()
`

// readbackJS reads the short-form dates the picker's own input fields display
// after confirmation. This is the ground truth the alignment gate compares.
const readbackJS = `
JSON.stringify({
	checkin:  document.querySelector('[data-testid="checkin-display"], input[name="checkin"]')?.value
		|| document.querySelector('[data-testid="checkin-display"]')?.innerText || "",
	checkout: document.querySelector('[data-testid="checkout-display"], input[name="checkout"]')?.value
		|| document.querySelector('[data-testid="checkout-display"]')?.innerText || "",
})
`

// labelFragmentsJS collects currency fragments inside the first anchor/card
// whose aria-label fuzzily matches the property name.
func labelFragmentsJS(name string) string {
	return fmt.Sprintf(`
(()=>{
	const norm = s => s.toLowerCase().split(/\s+/).filter(Boolean).join(' ');
	const target = norm(%q);
	const match = s => { const l = norm(s); return l.includes(target) || target.includes(l); };
	const host = Array.from(document.querySelectorAll('a[aria-label], [role="link"][aria-label]'))
		.find(el => match(el.getAttribute('aria-label')));
	if (!host) return "[]";
	const frags = [];
	for (const el of host.querySelectorAll('*')) {
		const own = Array.from(el.childNodes)
			.filter(n => n.nodeType === 3)
			.map(n => n.textContent.trim())
			.join(' ');
		if (/[$€£]\s*[0-9]/.test(own)) {
			frags.push({ text: own, nightly: /night/i.test(own) || /night/i.test(el.parentElement?.textContent || '') });
		}
	}
	return JSON.stringify(frags);
})()
`, name)
}

// cardTitleFragmentsJS is the same scan against listing containers whose
// title element fuzzily matches the property name.
func cardTitleFragmentsJS(name string) string {
	return fmt.Sprintf(`
(()=>{
	const norm = s => s.toLowerCase().split(/\s+/).filter(Boolean).join(' ');
	const target = norm(%q);
	const match = s => { const l = norm(s); return l.includes(target) || target.includes(l); };
	const title = Array.from(document.querySelectorAll('[data-testid="result-title"], h2, h3'))
		.find(el => match(el.innerText || ''));
	const host = title?.closest('[data-testid="result-card"], li, article');
	if (!host) return "[]";
	const frags = [];
	for (const el of host.querySelectorAll('*')) {
		const own = Array.from(el.childNodes)
			.filter(n => n.nodeType === 3)
			.map(n => n.textContent.trim())
			.join(' ');
		if (/[$€£]\s*[0-9]/.test(own)) {
			frags.push({ text: own, nightly: /night/i.test(own) });
		}
	}
	return JSON.stringify(frags);
})()
`, name)
}

// bodyTextJS returns the page's full text content.
const bodyTextJS = `document.body?.innerText || ""`

// expandProvidersJS clicks the "view more providers" control if present.
const expandProvidersJS = `
(()=>{
	const el = Array.from(document.querySelectorAll('button, [role="button"]'))
		.find(b => /view\s+(all|more)\s+(deals|providers)/i.test(b.innerText || ''));
	if (el) el.click();
	return !!el;
})()
`

// providerHTMLJS returns the provider section's HTML, or the whole body when
// no dedicated section exists.
const providerHTMLJS = `
(document.querySelector('[data-testid="provider-list"], .provider-list') || document.body).outerHTML
`
