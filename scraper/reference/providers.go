package reference

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sparrowryan/sb-rate-parity/utils"
)

// Provider block selectors, tuned against the current results markup.
const (
	providerBlockSelector = `[data-testid="provider-row"], .provider-row, [class*="providerRow"]`
	providerNameSelector  = `[data-testid="provider-name"], .provider-name, img[alt]`
)

var amountRe = regexp.MustCompile(`[$€£]\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// MajorProviderPrice parses the provider section HTML and returns the lowest
// rate among blocks whose provider name matches the allow-list, or nil when
// none matched.
func MajorProviderPrice(html string, allowList []string) (*float64, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse provider html: %w", err)
	}

	var best *float64
	doc.Find(providerBlockSelector).Each(func(_ int, block *goquery.Selection) {
		name := providerName(block)
		if !matchesAllowList(name, allowList) {
			return
		}
		if min := minAmount(block.Text()); min != nil {
			if best == nil || *min < *best {
				best = min
			}
		}
	})

	return best, nil
}

// providerName reads the block's provider label, falling back to the logo's
// alt text.
func providerName(block *goquery.Selection) string {
	sel := block.Find(providerNameSelector).First()
	if alt, ok := sel.Attr("alt"); ok && strings.TrimSpace(sel.Text()) == "" {
		return alt
	}
	return sel.Text()
}

func matchesAllowList(name string, allowList []string) bool {
	n := utils.NormalizeName(name)
	if n == "" {
		return false
	}
	for _, allowed := range allowList {
		a := utils.NormalizeName(allowed)
		if strings.Contains(n, a) || strings.Contains(a, n) {
			return true
		}
	}
	return false
}

// minAmount returns the lowest currency amount in the block's text, or nil.
func minAmount(text string) *float64 {
	var min *float64
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if min == nil || v < *min {
			val := v
			min = &val
		}
	}
	return min
}
