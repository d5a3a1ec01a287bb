package sitemeasure

import (
	"strings"

	"golang.org/x/text/cases"
)

// Material is a catalog entry as seen by the estimator.
type Material struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	NameEs      string  `json:"nameEs"`
	PricePerTon float64 `json:"pricePerTon"`
	Available   float64 `json:"available"`
	// DensitySlug links the material to a DensityProfile explicitly. When
	// empty, MatchDensity falls back to name matching.
	DensitySlug string `json:"densitySlug,omitempty"`
}

// DensityProfile converts a volume of material into weight.
type DensityProfile struct {
	Slug             string  `json:"slug"`
	MaterialName     string  `json:"materialName"`
	TonsPerCubicYard float64 `json:"tonsPerCubicYard"`
	DefaultDepthIn   int     `json:"defaultDepthIn"`
	MinDepthIn       int     `json:"minDepthIn"`
	MaxDepthIn       int     `json:"maxDepthIn"`
}

// MatchConfidence reports how a density profile was chosen.
type MatchConfidence string

const (
	MatchExplicit  MatchConfidence = "explicit"
	MatchToken     MatchConfidence = "token"
	MatchAmbiguous MatchConfidence = "ambiguous"
	MatchNone      MatchConfidence = "none"
)

// DensityMatch is the outcome of MatchDensity. Profile is nil unless the
// match is explicit or a single token candidate was found.
type DensityMatch struct {
	Profile    *DensityProfile `json:"profile,omitempty"`
	Confidence MatchConfidence `json:"confidence"`
	Candidates int             `json:"candidates"`
}

// Confident reports whether a profile was found without ambiguity.
func (m DensityMatch) Confident() bool {
	return m.Profile != nil
}

func (m DensityMatch) TonsPerCubicYard() float64 {
	if m.Profile == nil || m.Profile.TonsPerCubicYard <= 0 {
		return DefaultTonsPerCubicYard
	}
	return m.Profile.TonsPerCubicYard
}

func (m DensityMatch) DefaultDepth() int {
	if m.Profile == nil || m.Profile.DefaultDepthIn <= 0 {
		return DefaultDepthIn
	}
	return ClampDepth(m.Profile.DefaultDepthIn)
}

// MatchDensity picks the density profile for a material. An explicit
// DensitySlug wins; otherwise a profile matches when the first word of
// either name occurs in the other name, ignoring case. Among several token
// matches a single profile whose full name equals the material name wins;
// otherwise they are treated as no match so the caller uses defaults.
func MatchDensity(m *Material, profiles []DensityProfile) DensityMatch {
	if m == nil || len(profiles) == 0 {
		return DensityMatch{Confidence: MatchNone}
	}

	if m.DensitySlug != "" {
		for i := range profiles {
			if profiles[i].Slug == m.DensitySlug {
				p := profiles[i]
				return DensityMatch{Profile: &p, Confidence: MatchExplicit, Candidates: 1}
			}
		}
	}

	// Casers keep state, so each call gets its own.
	folder := cases.Fold()
	name := folder.String(m.Name)
	nameHead := firstToken(name)

	var found []int
	for i := range profiles {
		dn := folder.String(profiles[i].MaterialName)
		if (nameHead != "" && strings.Contains(dn, nameHead)) ||
			(firstToken(dn) != "" && strings.Contains(name, firstToken(dn))) {
			found = append(found, i)
		}
	}

	switch len(found) {
	case 0:
		return DensityMatch{Confidence: MatchNone}
	case 1:
		p := profiles[found[0]]
		return DensityMatch{Profile: &p, Confidence: MatchToken, Candidates: 1}
	}

	exact := -1
	for _, i := range found {
		if strings.TrimSpace(folder.String(profiles[i].MaterialName)) != strings.TrimSpace(name) {
			continue
		}
		if exact >= 0 {
			exact = -1
			break
		}
		exact = i
	}
	if exact >= 0 {
		p := profiles[exact]
		return DensityMatch{Profile: &p, Confidence: MatchToken, Candidates: len(found)}
	}
	return DensityMatch{Confidence: MatchAmbiguous, Candidates: len(found)}
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
