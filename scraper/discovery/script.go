package discovery

import "fmt"

// In-page extraction scripts for the booking site's listing search. Selector
// specifics are tuned against the current markup and expected to need
// periodic maintenance.

// cardsJS collects every rendered listing card's heading, location sub-line,
// price sub-line and anchor href.
const cardsJS = `
JSON.stringify(
	Array.from(document.querySelectorAll('[data-testid="listing-card"]')).map(card => ({
		name:  card.querySelector('[data-testid="card-title"], h3')?.innerText?.trim() || "",
		city:  card.querySelector('[data-testid="card-location"], .card-subtitle')?.innerText?.trim() || "",
		price: card.querySelector('[data-testid="card-price"], .card-price')?.innerText?.trim() || "",
		url:   card.querySelector('a')?.href || "",
	}))
)
`

// pageStateJS reads the signals the advance-wait compares: rendered card
// count and the first card's heading text.
const pageStateJS = `
JSON.stringify({
	count: document.querySelectorAll('[data-testid="listing-card"]').length,
	first: document.querySelector('[data-testid="listing-card"] [data-testid="card-title"], [data-testid="listing-card"] h3')?.innerText?.trim() || "",
})
`

// clickNextJS clicks the pagination "next" control if one exists and is not
// disabled. Returns whether a click happened.
const clickNextJS = `
(()=>{
	const candidates = [
		'button[aria-label="Next page"]',
		'a[aria-label="Next page"]',
		'a[aria-label="Next"]',
		'[data-testid="pagination-next"]',
	];
	for (const sel of candidates) {
		const el = document.querySelector(sel);
		if (!el) continue;
		if (el.disabled || el.getAttribute('aria-disabled') === 'true') continue;
		el.click();
		return true;
	}
	return false;
})()
`

// clickCardJS clicks the card whose heading matches name exactly. Returns
// whether a card was found.
func clickCardJS(name string) string {
	return fmt.Sprintf(`
(()=>{
	const target = %q.trim().toLowerCase();
	const headings = Array.from(document.querySelectorAll('[data-testid="listing-card"] [data-testid="card-title"], [data-testid="listing-card"] h3'));
	const hit = headings.find(h => h.innerText.trim().toLowerCase() === target);
	if (!hit) return false;
	const link = hit.closest('[data-testid="listing-card"]')?.querySelector('a, [role="link"]');
	(link || hit).click();
	return true;
})()
`, name)
}
