// Package matching turns the free-text description of a bank transfer into
// order identifier candidates and decides whether an order id matches them.
//
// The pipeline is pure: Normalize → ExtractAll → Candidates → Match. Looking the
// candidates up in the store is the caller's job.
package matching

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// MinCandidateLength is the shortest identifier fragment ever compared.
const MinCandidateLength = 8

// prefixLengths are tried longest first after the full identifier.
var prefixLengths = []int{16, 12, 8}

var (
	ErrNoOrderID = errors.New("no order id in description")
	ErrNoMatch   = errors.New("no pending order matches description")
)

var (
	nonHex     = regexp.MustCompile(`[^0-9a-f]`)
	uuidInText = regexp.MustCompile(`[0-9a-f]{8}-?[0-9a-f]{4}-?[0-9a-f]{4}-?[0-9a-f]{4}-?[0-9a-f]{12}`)
	hexRun     = regexp.MustCompile(`[0-9a-f][0-9a-f-]*`)
)

// Normalize lowercases s and drops every character that is not a hex digit.
func Normalize(s string) string {
	return nonHex.ReplaceAllString(strings.ToLower(s), "")
}

// Extract returns the most plausible order identifier in a transfer
// description, normalized. See ExtractAll for the ranking.
func Extract(description string) (string, error) {
	ids, err := ExtractAll(description)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// ExtractAll returns every identifier of at least MinCandidateLength hex
// characters found in description, normalized and deduplicated. UUIDs, with or
// without hyphens, come first; then runs containing a hex letter; then purely
// numeric runs such as bank references. Longer runs rank higher within a group.
func ExtractAll(description string) ([]string, error) {
	lower := strings.ToLower(description)

	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, u := range findUUIDs(lower) {
		add(Normalize(u))
	}

	var runs []string
	for _, run := range hexRun.FindAllString(lower, -1) {
		if n := Normalize(run); len(n) >= MinCandidateLength {
			runs = append(runs, n)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool {
		li, lj := hasHexLetter(runs[i]), hasHexLetter(runs[j])
		if li != lj {
			return li
		}
		return len(runs[i]) > len(runs[j])
	})
	for _, r := range runs {
		add(r)
	}

	if len(ids) == 0 {
		return nil, ErrNoOrderID
	}
	return ids, nil
}

// findUUIDs returns UUID-shaped substrings of s that are not glued to other
// hex digits on either side.
func findUUIDs(s string) []string {
	var out []string
	for offset := 0; offset < len(s); {
		loc := uuidInText.FindStringIndex(s[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[0], offset+loc[1]
		if (start == 0 || !isHex(s[start-1])) && (end == len(s) || !isHex(s[end])) {
			out = append(out, s[start:end])
			offset = end
			continue
		}
		offset = start + 1
	}
	return out
}

func isHex(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f')
}

func hasHexLetter(s string) bool {
	return strings.IndexAny(s, "abcdef") >= 0
}

// CanonicalUUID converts a 32 character hex identifier into the hyphenated
// 8-4-4-4-12 form. ok is false for anything else.
func CanonicalUUID(id string) (string, bool) {
	n := Normalize(id)
	if len(n) != 32 {
		return "", false
	}
	canonical := n[0:8] + "-" + n[8:12] + "-" + n[12:16] + "-" + n[16:20] + "-" + n[20:32]
	if _, err := uuid.Parse(canonical); err != nil {
		return "", false
	}
	return canonical, true
}

// Candidates returns the identifier followed by its 16, 12 and 8 character
// prefixes. Nothing shorter than MinCandidateLength is returned.
func Candidates(id string) []string {
	n := Normalize(id)
	if len(n) < MinCandidateLength {
		return nil
	}
	out := []string{n}
	for _, l := range prefixLengths {
		if l < len(n) {
			out = append(out, n[:l])
		}
	}
	return out
}

// Rule names the comparison that matched, for logging and audit.
type Rule string

const (
	RuleExact           Rule = "exact"
	RuleOrderPrefix     Rule = "order_has_prefix"
	RuleCandidatePrefix Rule = "candidate_has_prefix"
	RuleContains        Rule = "contains"
)

// Match reports whether orderID matches any candidate. Rules are checked from
// strictest to loosest for each candidate in order.
func Match(orderID string, candidates []string) (Rule, bool) {
	order := Normalize(orderID)
	if len(order) < MinCandidateLength {
		return "", false
	}
	for _, c := range candidates {
		if len(c) < MinCandidateLength {
			continue
		}
		switch {
		case order == c:
			return RuleExact, true
		case strings.HasPrefix(order, c):
			return RuleOrderPrefix, true
		case strings.HasPrefix(c, order):
			return RuleCandidatePrefix, true
		case strings.Contains(order, c), strings.Contains(c, order):
			return RuleContains, true
		}
	}
	return "", false
}
