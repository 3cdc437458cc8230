package policy

import (
	"strings"

	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

// CheckCommandAllowed returns a CodeBlocked error unless commandPath matches an
// allowlist entry. Entries match exactly or, when ending in '*', by prefix. An
// empty allowlist allows everything.
func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	path := normalize(commandPath)
	for _, allowed := range allowlist {
		entry := normalize(allowed)
		if prefix, ok := strings.CutSuffix(entry, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return nil
			}
			continue
		}
		if entry == path {
			return nil
		}
	}
	return clierr.Newf(clierr.CodeBlocked, "command %q blocked by --enable-commands policy", commandPath)
}

func normalize(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(v))), " ")
}
