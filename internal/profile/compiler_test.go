package profile

import (
	"strings"
	"testing"

	"github.com/noor-latif/open-cv-gen/internal/storage"
)

func strPtr(s string) *string { return &s }

func populatedProfile() *Profile {
	return &Profile{
		Record: storage.Profile{
			ID:       "p1",
			UserID:   "u1",
			FullName: strPtr("Noor Latif"),
			Summary:  strPtr("Backend engineer with 8 years of Go."),
		},
		Experiences: []storage.WorkExperience{
			{
				ID: "e1", ProfileID: "p1",
				Company: "Acme", Title: "Engineer",
				StartDate: "2020-01", IsCurrent: true,
				Description:  "Core platform work.",
				Achievements: []string{"Shipped v2", "Halved build times"},
			},
		},
		Educations: []storage.Education{
			{ID: "ed1", ProfileID: "p1", Institution: "KTH", Degree: "BSc", Field: strPtr("Computer Science")},
		},
		Skills: []storage.Skill{
			{ID: "s1", ProfileID: "p1", Name: "Go", Proficiency: strPtr("expert")},
			{ID: "s2", ProfileID: "p1", Name: "SQL"},
		},
	}
}

func TestCompileNilProfile(t *testing.T) {
	got := Compile(nil)
	if got != NoProfileInstruction {
		t.Errorf("nil profile: got %q", got)
	}
}

func TestCompileEmptyProfile(t *testing.T) {
	got := Compile(&Profile{Record: storage.Profile{ID: "p1", UserID: "u1"}})
	if got != IncompleteProfileInstruction {
		t.Errorf("empty profile: got %q", got)
	}
	if got == NoProfileInstruction {
		t.Error("empty profile must compile differently from a missing one")
	}
}

// A profile with only a location is still empty: location alone grounds
// nothing.
func TestCompileLocationOnlyIsEmpty(t *testing.T) {
	p := &Profile{Record: storage.Profile{ID: "p1", UserID: "u1", Location: strPtr("Berlin")}}
	if got := Compile(p); got != IncompleteProfileInstruction {
		t.Errorf("location-only profile: got %q", got)
	}
}

func TestCompileDeterministic(t *testing.T) {
	a := Compile(populatedProfile())
	b := Compile(populatedProfile())
	if a != b {
		t.Error("identical profiles compiled to different text")
	}
}

func TestCompileCurrentPositionRendersPresent(t *testing.T) {
	p := populatedProfile()
	// A stored end date must be ignored while is_current is set.
	p.Experiences[0].EndDate = strPtr("2023-06")

	got := Compile(p)
	want := "- Engineer at Acme (2020-01 - Present)"
	if !strings.Contains(got, want) {
		t.Errorf("missing %q in:\n%s", want, got)
	}
	if strings.Contains(got, "2023-06") {
		t.Errorf("stored end date leaked into output:\n%s", got)
	}
}

func TestCompileMissingEndDate(t *testing.T) {
	p := populatedProfile()
	p.Experiences[0].IsCurrent = false

	got := Compile(p)
	if !strings.Contains(got, "(2020-01 - Not specified)") {
		t.Errorf("missing end date placeholder in:\n%s", got)
	}
}

func TestCompileSectionOrderAndSeparator(t *testing.T) {
	got := Compile(populatedProfile())

	sections := strings.Split(got, "\n\n")
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d:\n%s", len(sections), got)
	}
	order := []string{"Candidate:", "Work Experience:", "Education:", "Skills:"}
	for i, prefix := range order {
		if !strings.HasPrefix(sections[i], prefix) {
			t.Errorf("section %d: expected prefix %q, got %q", i, prefix, sections[i])
		}
	}
}

func TestCompileIdentityDefaults(t *testing.T) {
	p := &Profile{
		Record: storage.Profile{ID: "p1", UserID: "u1", Summary: strPtr("Engineer.")},
	}
	got := Compile(p)
	if !strings.Contains(got, "Name: Not provided") {
		t.Errorf("missing name placeholder:\n%s", got)
	}
	if !strings.Contains(got, "Location: Not provided") {
		t.Errorf("missing location placeholder:\n%s", got)
	}
	if !strings.Contains(got, "Summary: Engineer.") {
		t.Errorf("missing summary:\n%s", got)
	}
}

// Identity block is omitted when only sub-collections have data.
func TestCompileIdentityOmittedWithoutNameOrSummary(t *testing.T) {
	p := &Profile{
		Record: storage.Profile{ID: "p1", UserID: "u1"},
		Skills: []storage.Skill{{ID: "s1", ProfileID: "p1", Name: "Go"}},
	}
	got := Compile(p)
	if strings.Contains(got, "Name:") {
		t.Errorf("identity block should be omitted:\n%s", got)
	}
	if got != "Skills: Go" {
		t.Errorf("got %q", got)
	}
}

func TestCompileEducationField(t *testing.T) {
	got := Compile(populatedProfile())
	if !strings.Contains(got, "- BSc in Computer Science at KTH") {
		t.Errorf("education line wrong:\n%s", got)
	}

	p := populatedProfile()
	p.Educations[0].Field = nil
	got = Compile(p)
	if !strings.Contains(got, "- BSc at KTH") {
		t.Errorf("field-less education line wrong:\n%s", got)
	}
}

func TestCompileSkillsLine(t *testing.T) {
	got := Compile(populatedProfile())
	if !strings.Contains(got, "Skills: Go (expert), SQL") {
		t.Errorf("skills line wrong:\n%s", got)
	}
}

func TestCompileAchievementsJoined(t *testing.T) {
	got := Compile(populatedProfile())
	if !strings.Contains(got, "Achievements: Shipped v2, Halved build times") {
		t.Errorf("achievements line wrong:\n%s", got)
	}
}

// Every substring of the output must trace back to a field value or one of
// the fixed placeholders.
func TestCompileNoFabrication(t *testing.T) {
	p := &Profile{
		Record: storage.Profile{ID: "p1", UserID: "u1", FullName: strPtr("Ada")},
	}
	got := Compile(p)

	allowed := []string{"Candidate:", "Name:", "Location:", "Summary:", "Ada", "Not provided", "\n", " "}
	rest := got
	for _, a := range allowed {
		rest = strings.ReplaceAll(rest, a, "")
	}
	if rest != "" {
		t.Errorf("unexpected synthesized content %q in:\n%s", rest, got)
	}
}
