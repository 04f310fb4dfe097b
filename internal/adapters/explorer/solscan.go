package explorer

import (
	"context"
	"regexp"
	"strings"

	"mintwatch/internal/adapters/browser"
	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/services/watcher/domain"
)

const (
	solscanMarker = `a[href*="/token/"]`
	mintSuffix    = "pump"
)

var tokenHref = regexp.MustCompile(`/token/([a-zA-Z0-9]+)`)

func solscan() page {
	return page{
		variant: domain.VariantSolscan,
		marker:  solscanMarker,
		url: func(sig string) string {
			return "https://solscan.io/tx/" + sig
		},
		read: func(ctx context.Context, s browser.Session) (string, error) {
			hrefs, err := s.Attributes(ctx, solscanMarker, "href")
			if err != nil {
				return "", errRead(err, "token links")
			}
			return mintFromLinks(hrefs)
		},
	}
}

// mintFromLinks returns the first token id ending in the pump suffix, in document order
func mintFromLinks(hrefs []string) (string, error) {
	for _, h := range hrefs {
		m := tokenHref.FindStringSubmatch(h)
		if m == nil {
			continue
		}
		if strings.HasSuffix(m[1], mintSuffix) {
			return m[1], nil
		}
	}
	return "", perr.Parsef("no token link ending in %q among %d links", mintSuffix, len(hrefs))
}
