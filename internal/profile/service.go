package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noor-latif/open-cv-gen/internal/storage"
)

// ErrInvalidProficiency is returned when a skill carries a tier outside
// the accepted enumeration.
var ErrInvalidProficiency = errors.New("invalid proficiency tier")

// Store defines the row operations the Service needs. Implemented by
// storage.Store.
type Store interface {
	CreateProfile(p storage.Profile) error
	GetProfileByUser(userID string) (storage.Profile, error)
	UpdateProfile(p storage.Profile) error

	InsertWorkExperience(e storage.WorkExperience) error
	UpdateWorkExperience(e storage.WorkExperience) error
	DeleteWorkExperience(profileID, id string) error
	ListWorkExperiences(profileID string) ([]storage.WorkExperience, error)

	InsertEducation(e storage.Education) error
	UpdateEducation(e storage.Education) error
	DeleteEducation(profileID, id string) error
	ListEducations(profileID string) ([]storage.Education, error)

	InsertSkill(s storage.Skill) error
	UpdateSkill(s storage.Skill) error
	DeleteSkill(profileID, id string) error
	ListSkills(profileID string) ([]storage.Skill, error)
}

// Service mediates profile access for one deployment: profiles are created
// lazily on first access per user, and sub-entities are validated before
// hitting storage.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetOrCreate returns the user's profile row, creating an empty one on
// first access.
func (s *Service) GetOrCreate(userID string) (storage.Profile, error) {
	p, err := s.store.GetProfileByUser(userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.Profile{}, fmt.Errorf("loading profile: %w", err)
	}

	now := time.Now().UTC()
	p = storage.Profile{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProfile(p); err != nil {
		return storage.Profile{}, fmt.Errorf("creating profile: %w", err)
	}
	return p, nil
}

// Load returns the full profile aggregate for a user, or nil when the user
// has no profile row yet. A nil return is the "no profile" compile case,
// not an error.
func (s *Service) Load(userID string) (*Profile, error) {
	rec, err := s.store.GetProfileByUser(userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	p := &Profile{Record: rec}
	if p.Experiences, err = s.store.ListWorkExperiences(rec.ID); err != nil {
		return nil, fmt.Errorf("loading experiences: %w", err)
	}
	if p.Educations, err = s.store.ListEducations(rec.ID); err != nil {
		return nil, fmt.Errorf("loading educations: %w", err)
	}
	if p.Skills, err = s.store.ListSkills(rec.ID); err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	return p, nil
}

// Update persists the root profile fields (name, location, summary).
func (s *Service) Update(p storage.Profile) error {
	return s.store.UpdateProfile(p)
}

// AddExperience validates and inserts a work experience, assigning an ID.
func (s *Service) AddExperience(e storage.WorkExperience) (storage.WorkExperience, error) {
	if e.Company == "" || e.Title == "" || e.StartDate == "" {
		return storage.WorkExperience{}, errors.New("company, title and start_date are required")
	}
	e.ID = uuid.New().String()
	if err := s.store.InsertWorkExperience(e); err != nil {
		return storage.WorkExperience{}, fmt.Errorf("inserting experience: %w", err)
	}
	return e, nil
}

func (s *Service) UpdateExperience(e storage.WorkExperience) error {
	if e.Company == "" || e.Title == "" || e.StartDate == "" {
		return errors.New("company, title and start_date are required")
	}
	return s.store.UpdateWorkExperience(e)
}

func (s *Service) DeleteExperience(profileID, id string) error {
	return s.store.DeleteWorkExperience(profileID, id)
}

// AddEducation validates and inserts an education entry, assigning an ID.
func (s *Service) AddEducation(e storage.Education) (storage.Education, error) {
	if e.Institution == "" || e.Degree == "" {
		return storage.Education{}, errors.New("institution and degree are required")
	}
	e.ID = uuid.New().String()
	if err := s.store.InsertEducation(e); err != nil {
		return storage.Education{}, fmt.Errorf("inserting education: %w", err)
	}
	return e, nil
}

func (s *Service) UpdateEducation(e storage.Education) error {
	if e.Institution == "" || e.Degree == "" {
		return errors.New("institution and degree are required")
	}
	return s.store.UpdateEducation(e)
}

func (s *Service) DeleteEducation(profileID, id string) error {
	return s.store.DeleteEducation(profileID, id)
}

// AddSkill validates and inserts a skill, assigning an ID.
func (s *Service) AddSkill(sk storage.Skill) (storage.Skill, error) {
	if sk.Name == "" {
		return storage.Skill{}, errors.New("name is required")
	}
	if sk.Proficiency != nil && !ValidProficiency(*sk.Proficiency) {
		return storage.Skill{}, fmt.Errorf("%w: %q", ErrInvalidProficiency, *sk.Proficiency)
	}
	sk.ID = uuid.New().String()
	if err := s.store.InsertSkill(sk); err != nil {
		return storage.Skill{}, fmt.Errorf("inserting skill: %w", err)
	}
	return sk, nil
}

func (s *Service) UpdateSkill(sk storage.Skill) error {
	if sk.Name == "" {
		return errors.New("name is required")
	}
	if sk.Proficiency != nil && !ValidProficiency(*sk.Proficiency) {
		return fmt.Errorf("%w: %q", ErrInvalidProficiency, *sk.Proficiency)
	}
	return s.store.UpdateSkill(sk)
}

func (s *Service) DeleteSkill(profileID, id string) error {
	return s.store.DeleteSkill(profileID, id)
}
