// Package policy gates which commands an embedding agent may run.
package policy

import (
	"strings"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
)

// CheckCommandAllowed matches the command path against the allowlist. A
// prefix entry admits the whole subtree, so "networks" covers
// "networks list".
func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	for _, allowed := range allowlist {
		normAllowed := normalize(allowed)
		if normAllowed == normPath || strings.HasPrefix(normPath, normAllowed+" ") {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
