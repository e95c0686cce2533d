package match

import (
	"errors"
	"fmt"

	"ghgrab/internal/github"
)

// ErrSelectionCancelled indicates the user aborted the interactive choice.
var ErrSelectionCancelled = errors.New("selection cancelled")

// Prompter is the capability the resolver uses to ask the user to pick one of
// several candidates. It returns the zero-based index of the chosen candidate
// and blocks until a valid choice is made or the interaction is aborted.
// Abstracted as an interface so tests can script the choice.
type Prompter interface {
	Select(candidates []Candidate) (int, error)
}

// Select resolves a ranked candidate list to exactly one asset. With first
// set, or a single candidate, the top-ranked asset is returned without
// interaction; otherwise the prompter decides.
func Select(candidates []Candidate, first bool, prompter Prompter) (github.Asset, error) {
	switch {
	case len(candidates) == 0:
		// Match never returns an empty list without an error; guard anyway.
		return github.Asset{}, ErrNoMatchingAsset
	case first || len(candidates) == 1:
		return candidates[0].Asset, nil
	}

	idx, err := prompter.Select(candidates)
	if err != nil {
		return github.Asset{}, err
	}
	if idx < 0 || idx >= len(candidates) {
		return github.Asset{}, fmt.Errorf("prompter returned index %d out of range", idx)
	}
	return candidates[idx].Asset, nil
}
