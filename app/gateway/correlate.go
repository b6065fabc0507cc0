package gateway

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	uuidPattern    = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	trailingParens = regexp.MustCompile(`\(([^()]+)\)\s*$`)
)

// ResolveCorrelationIDs extracts internal quote identifiers from the loosely
// structured payload. Strategies run in order, first match wins:
//
//  1. a comma-separated id list inside trailing parentheses of the free-text
//     field, e.g. "Order for Alice (id-1,id-2)",
//  2. UUID-shaped identifiers anywhere in the free-text field,
//  3. a UUID-shaped identifier embedded in the gateway's own transaction
//     reference.
//
// Returns nil when nothing resolves; the caller rejects the request and
// captures the payload for manual reconciliation.
func ResolveCorrelationIDs(freeText, txnRef string) []string {
	if m := trailingParens.FindStringSubmatch(freeText); m != nil {
		ids := make([]string, 0, 2)
		for _, part := range strings.Split(m[1], ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			ids = append(ids, id.String())
		}
		if len(ids) > 0 {
			return dedupe(ids)
		}
	}

	if matches := uuidPattern.FindAllString(freeText, -1); len(matches) > 0 {
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, strings.ToLower(m))
		}
		return dedupe(ids)
	}

	if m := uuidPattern.FindString(txnRef); m != "" {
		return []string{strings.ToLower(m)}
	}

	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
