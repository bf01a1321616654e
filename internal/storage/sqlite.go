package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for profiles, their
// sub-entities, and application records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "opencv.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	// Cascade deletes from profiles to sub-entities depend on this.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Profiles ---

func (s *Store) CreateProfile(p Profile) error {
	_, err := s.db.Exec(`
		INSERT INTO profiles (id, user_id, full_name, location, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.FullName, p.Location, p.Summary,
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetProfileByUser(userID string) (Profile, error) {
	var p Profile
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, full_name, location, summary, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &p.FullName, &p.Location, &p.Summary, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Profile{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Profile{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}

func (s *Store) UpdateProfile(p Profile) error {
	res, err := s.db.Exec(`
		UPDATE profiles SET full_name = ?, location = ?, summary = ?, updated_at = ?
		WHERE id = ?`,
		p.FullName, p.Location, p.Summary, time.Now().UTC().Format(time.RFC3339), p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteProfile(id string) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- Work experiences ---

func (s *Store) InsertWorkExperience(e WorkExperience) error {
	achievements, err := marshalStrings(e.Achievements)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO work_experiences (id, profile_id, company, title, start_date, end_date, is_current, description, achievements, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProfileID, e.Company, e.Title, e.StartDate, e.EndDate,
		boolToInt(e.IsCurrent), e.Description, achievements, e.Position,
	)
	return err
}

func (s *Store) UpdateWorkExperience(e WorkExperience) error {
	achievements, err := marshalStrings(e.Achievements)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE work_experiences
		SET company = ?, title = ?, start_date = ?, end_date = ?, is_current = ?, description = ?, achievements = ?, position = ?
		WHERE id = ? AND profile_id = ?`,
		e.Company, e.Title, e.StartDate, e.EndDate, boolToInt(e.IsCurrent),
		e.Description, achievements, e.Position, e.ID, e.ProfileID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteWorkExperience(profileID, id string) error {
	res, err := s.db.Exec(`DELETE FROM work_experiences WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListWorkExperiences(profileID string) ([]WorkExperience, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, company, title, start_date, end_date, is_current, description, achievements, position
		FROM work_experiences WHERE profile_id = ?
		ORDER BY position ASC, start_date DESC, id ASC`, profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []WorkExperience
	for rows.Next() {
		var e WorkExperience
		var isCurrent int
		var achievements string
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Company, &e.Title, &e.StartDate, &e.EndDate, &isCurrent, &e.Description, &achievements, &e.Position); err != nil {
			return nil, err
		}
		e.IsCurrent = isCurrent != 0
		if err := json.Unmarshal([]byte(achievements), &e.Achievements); err != nil {
			return nil, fmt.Errorf("parsing achievements for %s: %w", e.ID, err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// --- Educations ---

func (s *Store) InsertEducation(e Education) error {
	_, err := s.db.Exec(`
		INSERT INTO educations (id, profile_id, institution, degree, field)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.ProfileID, e.Institution, e.Degree, e.Field,
	)
	return err
}

func (s *Store) UpdateEducation(e Education) error {
	res, err := s.db.Exec(`
		UPDATE educations SET institution = ?, degree = ?, field = ?
		WHERE id = ? AND profile_id = ?`,
		e.Institution, e.Degree, e.Field, e.ID, e.ProfileID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteEducation(profileID, id string) error {
	res, err := s.db.Exec(`DELETE FROM educations WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListEducations(profileID string) ([]Education, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, institution, degree, field
		FROM educations WHERE profile_id = ? ORDER BY id ASC`, profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Education
	for rows.Next() {
		var e Education
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Institution, &e.Degree, &e.Field); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// --- Skills ---

func (s *Store) InsertSkill(sk Skill) error {
	_, err := s.db.Exec(`
		INSERT INTO skills (id, profile_id, name, proficiency)
		VALUES (?, ?, ?, ?)`,
		sk.ID, sk.ProfileID, sk.Name, sk.Proficiency,
	)
	return err
}

func (s *Store) UpdateSkill(sk Skill) error {
	res, err := s.db.Exec(`
		UPDATE skills SET name = ?, proficiency = ? WHERE id = ? AND profile_id = ?`,
		sk.Name, sk.Proficiency, sk.ID, sk.ProfileID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteSkill(profileID, id string) error {
	res, err := s.db.Exec(`DELETE FROM skills WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListSkills(profileID string) ([]Skill, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, name, proficiency
		FROM skills WHERE profile_id = ? ORDER BY id ASC`, profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Skill
	for rows.Next() {
		var sk Skill
		if err := rows.Scan(&sk.ID, &sk.ProfileID, &sk.Name, &sk.Proficiency); err != nil {
			return nil, err
		}
		results = append(results, sk)
	}
	return results, rows.Err()
}

// --- Applications ---

func (s *Store) SaveApplication(a Application) error {
	matched, err := marshalStrings(a.MatchedSkills)
	if err != nil {
		return err
	}
	missing, err := marshalStrings(a.MissingSkills)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO applications (id, user_id, company, job_title, job_description, matched_skills, missing_skills, cover_letter, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Company, a.JobTitle, a.JobDescription,
		matched, missing, a.CoverLetter, a.Document, a.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// SetApplicationDocument stores the drafted document on an existing
// application.
func (s *Store) SetApplicationDocument(userID, id, document string) error {
	res, err := s.db.Exec(`
		UPDATE applications SET document = ? WHERE id = ? AND user_id = ?`,
		document, id, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) GetApplication(userID, id string) (Application, error) {
	var a Application
	var matched, missing, createdAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, company, job_title, job_description, matched_skills, missing_skills, cover_letter, document, created_at
		FROM applications WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&a.ID, &a.UserID, &a.Company, &a.JobTitle, &a.JobDescription, &matched, &missing, &a.CoverLetter, &a.Document, &createdAt)
	if err == sql.ErrNoRows {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, err
	}
	if err := json.Unmarshal([]byte(matched), &a.MatchedSkills); err != nil {
		return Application{}, fmt.Errorf("parsing matched_skills: %w", err)
	}
	if err := json.Unmarshal([]byte(missing), &a.MissingSkills); err != nil {
		return Application{}, fmt.Errorf("parsing missing_skills: %w", err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Application{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return a, nil
}

func (s *Store) ListApplications(userID string, limit, offset int) ([]Application, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, company, job_title, job_description, matched_skills, missing_skills, cover_letter, document, created_at
		FROM applications WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Application
	for rows.Next() {
		var a Application
		var matched, missing, createdAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Company, &a.JobTitle, &a.JobDescription, &matched, &missing, &a.CoverLetter, &a.Document, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(matched), &a.MatchedSkills); err != nil {
			return nil, fmt.Errorf("parsing matched_skills: %w", err)
		}
		if err := json.Unmarshal([]byte(missing), &a.MissingSkills); err != nil {
			return nil, fmt.Errorf("parsing missing_skills: %w", err)
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (s *Store) DeleteApplication(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM applications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- helpers ---

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		return "[]", nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshalling string list: %w", err)
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
