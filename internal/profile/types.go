package profile

import (
	"github.com/noor-latif/open-cv-gen/internal/storage"
)

// Proficiency tiers accepted for a skill.
var Proficiencies = []string{"beginner", "intermediate", "advanced", "expert"}

// ValidProficiency reports whether tier is one of the accepted values.
// The empty string is valid because proficiency is optional.
func ValidProficiency(tier string) bool {
	if tier == "" {
		return true
	}
	for _, p := range Proficiencies {
		if tier == p {
			return true
		}
	}
	return false
}

// Profile aggregates the user's career record: the root row plus its
// owned sub-collections, loaded together for context compilation.
type Profile struct {
	Record      storage.Profile          `json:"profile"`
	Experiences []storage.WorkExperience `json:"experiences"`
	Educations  []storage.Education      `json:"educations"`
	Skills      []storage.Skill          `json:"skills"`
}

// Empty reports whether the profile carries no usable content: no name,
// no summary, and no populated sub-collection. An empty profile compiles
// to a different instruction than a missing one.
func (p *Profile) Empty() bool {
	if p.Record.FullName != nil && *p.Record.FullName != "" {
		return false
	}
	if p.Record.Summary != nil && *p.Record.Summary != "" {
		return false
	}
	return len(p.Experiences) == 0 && len(p.Educations) == 0 && len(p.Skills) == 0
}
