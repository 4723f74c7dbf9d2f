// Package upgrade plans and applies dependency upgrades for a manifest.
//
// An [Upgrader] resolves every dependency of the selected manifest sections
// independently against a read-only index and reports which references
// would change. Planning never touches the manifest; [Apply] writes a chosen
// subset of the planned changes, which lets callers review a plan before
// committing to it.
//
// Dependencies whose package is missing from the index are skipped with a
// warning unless the upgrader is strict, in which case the whole plan fails.
// Malformed references and malformed index versions always fail the plan.
package upgrade

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/manifest"
	"github.com/matzehuels/wallyup/pkg/resolve"
	"github.com/matzehuels/wallyup/pkg/version"
)

// DefaultSections are upgraded when none are configured.
var DefaultSections = []string{manifest.SectionShared}

// Upgrader resolves manifest dependencies against an index.
type Upgrader struct {
	Index    resolve.Lookuper
	Focus    version.Focus
	Sections []string    // manifest sections to upgrade (default: dependencies)
	Strict   bool        // fail on unknown packages instead of skipping them
	Logger   *log.Logger // skip warnings (optional)
}

// Change is one dependency whose reference would move.
type Change struct {
	Section string `json:"section"`
	Alias   string `json:"alias"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (c Change) String() string {
	return fmt.Sprintf("[%s] %s: %s -> %s", c.Section, c.Alias, c.From, c.To)
}

// Skip is one dependency left unresolved.
type Skip struct {
	Section   string `json:"section"`
	Alias     string `json:"alias"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// Report is the outcome of planning.
type Report struct {
	Focus     version.Focus `json:"focus"`
	Changes   []Change      `json:"changes"`
	Skipped   []Skip        `json:"skipped,omitempty"`
	Unchanged int           `json:"unchanged"`
}

// Changed reports whether any dependency would move.
func (r *Report) Changed() bool {
	return len(r.Changes) > 0
}

// Plan resolves every dependency of the selected sections. Sections are
// visited in manifest order and aliases in sorted order, so the report is
// deterministic.
func (u *Upgrader) Plan(m *manifest.Manifest) (*Report, error) {
	if u.Index == nil {
		return nil, errors.New(errors.ErrCodeInternal, "upgrader has no index")
	}
	if !u.Focus.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidFocus, "unknown focus %q", u.Focus)
	}
	sections, err := u.sections()
	if err != nil {
		return nil, err
	}
	logger := u.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	report := &Report{Focus: u.Focus}
	for _, section := range sections {
		deps := m.Dependencies(section)
		for _, alias := range m.Aliases(section) {
			ref := deps[alias]
			resolved, err := resolve.Resolve(ref, u.Focus, u.Index)
			switch {
			case errors.Is(err, errors.ErrCodeUnknownPackage) && !u.Strict:
				logger.Warn("skipping dependency", "section", section, "alias", alias, "ref", ref, "reason", errors.UserMessage(err))
				report.Skipped = append(report.Skipped, Skip{
					Section:   section,
					Alias:     alias,
					Reference: ref,
					Reason:    errors.UserMessage(err),
				})
				continue
			case err != nil:
				return nil, fmt.Errorf("[%s] %s: %w", section, alias, err)
			}

			if resolved == ref {
				report.Unchanged++
				continue
			}
			report.Changes = append(report.Changes, Change{
				Section: section,
				Alias:   alias,
				From:    ref,
				To:      resolved,
			})
		}
	}
	return report, nil
}

func (u *Upgrader) sections() ([]string, error) {
	if len(u.Sections) == 0 {
		return DefaultSections, nil
	}
	var out []string
	for _, s := range manifest.Sections {
		if slices.Contains(u.Sections, s) {
			out = append(out, s)
		}
	}
	for _, s := range u.Sections {
		if !slices.Contains(manifest.Sections, s) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown manifest section %q", s)
		}
	}
	return out, nil
}

// Apply writes changes into m and returns how many were applied. A change
// whose From no longer matches the manifest is not applied.
func Apply(m *manifest.Manifest, changes []Change) int {
	applied := 0
	for _, c := range changes {
		if m.Dependencies(c.Section)[c.Alias] != c.From {
			continue
		}
		m.Set(c.Section, c.Alias, c.To)
		applied++
	}
	return applied
}
