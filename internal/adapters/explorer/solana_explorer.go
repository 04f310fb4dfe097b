package explorer

import (
	"context"
	"encoding/json"
	"strings"

	"mintwatch/internal/adapters/browser"
	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/services/watcher/domain"
)

const solanaExplorerMarker = "pre.json-wrap"

func solanaExplorer() page {
	return page{
		variant: domain.VariantSolanaExplorer,
		marker:  solanaExplorerMarker,
		url: func(sig string) string {
			return "https://explorer.solana.com/tx/" + sig + "?cluster=mainnet"
		},
		read: func(ctx context.Context, s browser.Session) (string, error) {
			txt, err := s.Text(ctx, solanaExplorerMarker)
			if err != nil {
				return "", errRead(err, "instruction panel")
			}
			return mintFromInstruction(txt)
		},
	}
}

// mintFromInstruction reads info.mint from a parsed instruction JSON panel
func mintFromInstruction(txt string) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(txt)), &doc); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeParse, "instruction panel is not a JSON object")
	}
	info, ok := doc["info"].(map[string]any)
	if !ok {
		return "", perr.Parsef("instruction has no info object")
	}
	mint, ok := info["mint"].(string)
	if !ok || mint == "" {
		return "", perr.Parsef("instruction info has no mint")
	}
	return mint, nil
}
