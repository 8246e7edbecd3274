// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package bbstate

import (
	"strings"

	"github.com/jontk/bb-agent/pkg/logging"
	"github.com/jontk/bb-agent/pkg/uidresolve"
)

// ParseUsers resolves a colon-delimited list of user names to user
// identifiers. Tokens that fail to resolve, or resolve to uid 0, are
// skipped with a logged warning rather than aborting the whole parse.
func ParseUsers(text string, resolver uidresolve.Resolver, logger logging.Logger) []uint32 {
	if text == "" {
		return nil
	}

	var uids []uint32
	for _, tok := range strings.Split(text, ":") {
		if tok == "" {
			continue
		}
		uid, ok := resolver.Lookup(tok)
		if !ok || uid == 0 {
			logger.Warn("ignoring invalid user", "token", tok)
			continue
		}
		uids = append(uids, uid)
	}
	return uids
}

// PrintUsers is the inverse of ParseUsers: it maps a uid list back to a
// colon-delimited string using the reverse lookup. Uids that no longer
// resolve to a name are silently dropped, matching the original's
// skip-on-failure behaviour.
func PrintUsers(uids []uint32, resolver uidresolve.Resolver) string {
	var names []string
	for _, uid := range uids {
		name, ok := resolver.Name(uid)
		if !ok {
			continue
		}
		names = append(names, name)
	}
	return strings.Join(names, ":")
}
