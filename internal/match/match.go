package match

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ghgrab/internal/github"
	"ghgrab/internal/logger"
	"ghgrab/internal/platform"
)

// ErrNoMatchingAsset indicates no asset survived exclusion filtering.
var ErrNoMatchingAsset = errors.New("no matching asset")

// Candidate pairs an asset with its platform-match score. Candidates are
// transient: produced per matching pass, discarded after selection.
type Candidate struct {
	Asset github.Asset
	Score int
}

// Scoring terms per platform value. Exact terms award 2 points, partial
// (synonym) terms 1 point. Compound terms containing a separator are matched
// against the whole lowercased name, since tokenization splits them apart
// (e.g. "x86_64" becomes "x86" and "64").
var (
	osExact = map[platform.OS][]string{
		platform.OSWindows: {"windows"},
		platform.OSMacOS:   {"macos", "darwin"},
		platform.OSLinux:   {"linux"},
	}
	osPartial = map[platform.OS][]string{
		platform.OSWindows: {"win"},
		platform.OSMacOS:   {"osx", "mac", "apple"},
	}
	archExact = map[platform.Arch][]string{
		platform.ArchX8664:   {"x86_64", "amd64", "x64"},
		platform.ArchAarch64: {"aarch64", "arm64"},
	}
	archPartial = map[platform.Arch][]string{
		platform.ArchX8664:   {"x86"},
		platform.ArchAarch64: {"arm"},
	}
)

// Match scores the release assets against the target platform and returns the
// candidates ranked highest-confidence first. Ranking rules:
//
//  1. Assets whose name contains an exclusion term are dropped outright;
//     exclusion wins over any platform score.
//  2. Remaining assets score 2 per exact OS/arch term and 1 per partial
//     term, with the OS dimension weighted above arch. Assets scoring zero on
//     both dimensions are dropped, unless that would leave nothing, in which
//     case all non-excluded assets are returned unscored so selection still
//     has something to offer.
//  3. Ties keep the API's listing order.
//
// Match fails with ErrNoMatchingAsset only when exclusion removed everything.
func Match(assets []github.Asset, target platform.Descriptor, exclude []string) ([]Candidate, error) {
	terms := normalizeTerms(exclude)

	var kept []github.Asset
	for _, asset := range assets {
		if excluded(asset.Name, terms) {
			logger.Debug("[DEBUG] Excluding asset %s\n", asset.Name)
			continue
		}
		kept = append(kept, asset)
	}
	if len(kept) == 0 {
		if len(terms) > 0 {
			return nil, fmt.Errorf("%w: every asset excluded by %v", ErrNoMatchingAsset, terms)
		}
		return nil, fmt.Errorf("%w: release has no assets", ErrNoMatchingAsset)
	}

	var candidates []Candidate
	for _, asset := range kept {
		score := scoreName(asset.Name, target)
		logger.Debug("[DEBUG] Asset %s scored %d for %s\n", asset.Name, score, target)
		if score == 0 {
			continue
		}
		candidates = append(candidates, Candidate{Asset: asset, Score: score})
	}

	// Fallback: nothing matched the platform at all, so hand back everything
	// that survived exclusion and let the resolver (or the user) decide.
	if len(candidates) == 0 {
		for _, asset := range kept {
			candidates = append(candidates, Candidate{Asset: asset})
		}
		return candidates, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// normalizeTerms lowercases and trims the exclusion terms, dropping empties.
func normalizeTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// excluded reports whether the asset name contains any exclusion term.
// Case-insensitive substring match per term.
func excluded(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// scoreName computes the platform-match score of an asset name. OS and arch
// each score 0, 1 (partial) or 2 (exact); the OS dimension is weighted so
// that any OS hit outranks a bare arch hit, otherwise a wrong-OS asset with
// a matching architecture could win the top rank.
func scoreName(name string, target platform.Descriptor) int {
	lower := strings.ToLower(name)
	tokens := tokenize(lower)

	osScore := scoreTerms(lower, tokens, osExact[target.OS], osPartial[target.OS])
	archScore := scoreTerms(lower, tokens, archExact[target.Arch], archPartial[target.Arch])
	return osScore*3 + archScore
}

// scoreTerms returns 2 on an exact term hit, 1 on a partial hit, 0 otherwise.
// Exact terms must equal a token; partial terms only need to prefix one, so
// "win" picks up tokens like "win64".
func scoreTerms(lowerName string, tokens []string, exact, partial []string) int {
	for _, term := range exact {
		if matchTerm(lowerName, tokens, term, false) {
			return 2
		}
	}
	for _, term := range partial {
		if matchTerm(lowerName, tokens, term, true) {
			return 1
		}
	}
	return 0
}

// matchTerm checks a single term against the token list. Terms that carry a
// separator themselves (like "x86_64") can never equal a token, so they are
// matched as a substring of the full name instead.
func matchTerm(lowerName string, tokens []string, term string, prefix bool) bool {
	if strings.ContainsAny(term, "-_.") {
		return strings.Contains(lowerName, term)
	}
	for _, tok := range tokens {
		if tok == term {
			return true
		}
		if prefix && strings.HasPrefix(tok, term) {
			return true
		}
	}
	return false
}

// tokenize splits a lowercased asset name on the conventional separators.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' ' || r == '\t'
	})
}
