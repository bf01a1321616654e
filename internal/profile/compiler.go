package profile

import (
	"fmt"
	"strings"
)

// Fixed instruction texts returned when there is nothing to compile.
// Callers embed these verbatim in the system prompt, so they must stay
// stable.
const (
	NoProfileInstruction = "The user has no profile on record. Do not assume anything about their background. " +
		"Ask them to create their profile (work history, education, skills) before evaluating job postings or drafting application documents."

	IncompleteProfileInstruction = "The user's profile exists but contains no information yet. Do not invent any background details. " +
		"Ask them to fill in their work history, education, and skills so responses can be grounded in real experience."

	notProvided  = "Not provided"
	notSpecified = "Not specified"
)

// Compile renders a profile into the grounding text embedded in the system
// prompt. Output is deterministic: identical profile state always produces
// byte-identical text. Absent data renders as fixed placeholders or omitted
// sections; values are never synthesized.
func Compile(p *Profile) string {
	if p == nil {
		return NoProfileInstruction
	}
	if p.Empty() {
		return IncompleteProfileInstruction
	}

	var sections []string

	if identity := compileIdentity(p); identity != "" {
		sections = append(sections, identity)
	}
	if work := compileExperiences(p); work != "" {
		sections = append(sections, work)
	}
	if edu := compileEducations(p); edu != "" {
		sections = append(sections, edu)
	}
	if skills := compileSkills(p); skills != "" {
		sections = append(sections, skills)
	}

	return strings.Join(sections, "\n\n")
}

// compileIdentity emits the name/location/summary block. Omitted entirely
// unless a name or summary is present; within the block, missing fields
// render as "Not provided".
func compileIdentity(p *Profile) string {
	name := derefOr(p.Record.FullName, notProvided)
	summary := derefOr(p.Record.Summary, notProvided)
	if name == notProvided && summary == notProvided {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Candidate:\n")
	sb.WriteString("Name: " + name + "\n")
	sb.WriteString("Location: " + derefOr(p.Record.Location, notProvided) + "\n")
	sb.WriteString("Summary: " + summary)
	return sb.String()
}

func compileExperiences(p *Profile) string {
	if len(p.Experiences) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Work Experience:")
	for _, e := range p.Experiences {
		end := notSpecified
		if e.IsCurrent {
			// A stored end date is ignored while the position is current.
			end = "Present"
		} else if e.EndDate != nil && *e.EndDate != "" {
			end = *e.EndDate
		}
		sb.WriteString(fmt.Sprintf("\n- %s at %s (%s - %s)", e.Title, e.Company, e.StartDate, end))
		if e.Description != "" {
			sb.WriteString("\n  " + e.Description)
		}
		if len(e.Achievements) > 0 {
			sb.WriteString("\n  Achievements: " + strings.Join(e.Achievements, ", "))
		}
	}
	return sb.String()
}

func compileEducations(p *Profile) string {
	if len(p.Educations) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Education:")
	for _, e := range p.Educations {
		entry := e.Degree
		if e.Field != nil && *e.Field != "" {
			entry += " in " + *e.Field
		}
		sb.WriteString("\n- " + entry + " at " + e.Institution)
	}
	return sb.String()
}

func compileSkills(p *Profile) string {
	if len(p.Skills) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		entry := s.Name
		if s.Proficiency != nil && *s.Proficiency != "" {
			entry += " (" + *s.Proficiency + ")"
		}
		rendered = append(rendered, entry)
	}
	return "Skills: " + strings.Join(rendered, ", ")
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
