// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/TheFirstGuy/AncestrE/internal/models"
	"github.com/TheFirstGuy/AncestrE/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const dateLayout = "2006-01-02"

// Relationship kinds stored in the relationships table.
const (
	kindFather        = "father"
	kindMother        = "mother"
	kindCurrentSpouse = "current_spouse"
	kindSpouse        = "spouse"
	kindChild         = "child"
)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMA foreign_keys is per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveFamily replaces the snapshot stored under f.Name.
func (s *SQLiteStore) SaveFamily(ctx context.Context, f *models.Family) error {
	if f.Name == "" {
		return errors.New("family name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	familyID, err := familyIDByName(ctx, tx, f.Name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		familyID = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO families (id, name, saved_at) VALUES (?, ?, ?)",
			familyID, f.Name, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert family: %w", err)
		}
	case err != nil:
		return err
	default:
		for _, table := range []string{"relationships", "middle_names", "persons"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE family_id = ?", familyID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE families SET saved_at = ? WHERE id = ?",
			time.Now().Unix(), familyID,
		)
		if err != nil {
			return fmt.Errorf("failed to update family: %w", err)
		}
	}

	for pos, p := range f.Members() {
		if err := insertPerson(ctx, tx, familyID, pos, p); err != nil {
			return err
		}
	}
	for _, p := range f.Members() {
		if err := insertRelationships(ctx, tx, familyID, f, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertPerson(ctx context.Context, tx *sql.Tx, familyID string, pos int, p *models.Person) error {
	var birth, death sql.NullString
	if !p.BirthDate.IsZero() {
		birth = sql.NullString{String: p.BirthDate.Format(dateLayout), Valid: true}
	}
	if p.DeathDate != nil {
		death = sql.NullString{String: p.DeathDate.Format(dateLayout), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO persons (family_id, id, position, first_name, last_name, sex, birth_date, death_date, description, image_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		familyID, p.ID.String(), pos,
		p.FirstName, p.LastName, p.Sex.String(),
		birth, death,
		p.Description, p.ImagePath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}

	for i, name := range p.MiddleNames {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO middle_names (family_id, person_id, position, name) VALUES (?, ?, ?, ?)",
			familyID, p.ID.String(), i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert middle name: %w", err)
		}
	}
	return nil
}

func insertRelationships(ctx context.Context, tx *sql.Tx, familyID string, f *models.Family, p *models.Person) error {
	insert := func(kind string, targets []*models.Person) error {
		for i, t := range targets {
			if t == nil {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO relationships (family_id, person_id, kind, position, target_id) VALUES (?, ?, ?, ?, ?)",
				familyID, p.ID.String(), kind, i, t.ID.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert %s relationship: %w", kind, err)
			}
		}
		return nil
	}

	if err := insert(kindFather, []*models.Person{f.Father(p)}); err != nil {
		return err
	}
	if err := insert(kindMother, []*models.Person{f.Mother(p)}); err != nil {
		return err
	}
	if err := insert(kindCurrentSpouse, []*models.Person{f.CurrentSpouse(p)}); err != nil {
		return err
	}
	if err := insert(kindSpouse, f.Spouses(p)); err != nil {
		return err
	}
	return insert(kindChild, f.Children(p))
}

// GetFamily rebuilds the snapshot stored under name.
func (s *SQLiteStore) GetFamily(ctx context.Context, name string) (*models.Family, error) {
	familyID, err := familyIDByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}

	fam := models.NewFamily(name)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, sex, birth_date, death_date, description, image_path
		FROM persons
		WHERE family_id = ?
		ORDER BY position
	`, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get persons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, sex      string
			birth, death sql.NullString
			p            models.Person
		)
		if err := rows.Scan(&id, &p.FirstName, &p.LastName, &sex, &birth, &death, &p.Description, &p.ImagePath); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid person id %q: %w", id, err)
		}
		if p.Sex, err = models.ParseSex(sex); err != nil {
			return nil, fmt.Errorf("person %s: %w", id, err)
		}
		if birth.Valid {
			if p.BirthDate, err = time.Parse(dateLayout, birth.String); err != nil {
				return nil, fmt.Errorf("person %s has an invalid birth date: %w", id, err)
			}
		}
		if death.Valid {
			d, err := time.Parse(dateLayout, death.String)
			if err != nil {
				return nil, fmt.Errorf("person %s has an invalid death date: %w", id, err)
			}
			p.DeathDate = &d
		}
		fam.AddPerson(&p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	if err := s.loadMiddleNames(ctx, familyID, fam); err != nil {
		return nil, err
	}
	if err := s.loadRelationships(ctx, familyID, fam); err != nil {
		return nil, err
	}
	return fam, nil
}

func (s *SQLiteStore) loadMiddleNames(ctx context.Context, familyID string, fam *models.Family) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT person_id, name FROM middle_names WHERE family_id = ? ORDER BY person_id, position",
		familyID,
	)
	if err != nil {
		return fmt.Errorf("failed to get middle names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var personID, name string
		if err := rows.Scan(&personID, &name); err != nil {
			return fmt.Errorf("failed to scan middle name: %w", err)
		}
		if p := fam.PersonByString(personID); p != nil {
			p.AddMiddleName(name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate middle names: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadRelationships(ctx context.Context, familyID string, fam *models.Family) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT person_id, kind, target_id FROM relationships WHERE family_id = ? ORDER BY person_id, kind, position",
		familyID,
	)
	if err != nil {
		return fmt.Errorf("failed to get relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var personID, kind, targetID string
		if err := rows.Scan(&personID, &kind, &targetID); err != nil {
			return fmt.Errorf("failed to scan relationship: %w", err)
		}
		p := fam.PersonByString(personID)
		target := fam.PersonByString(targetID)
		if p == nil || target == nil {
			continue
		}
		switch kind {
		case kindFather:
			p.SetFather(target)
		case kindMother:
			p.SetMother(target)
		case kindCurrentSpouse:
			p.SetCurrentSpouse(target)
		case kindSpouse:
			p.AddSpouse(target)
		case kindChild:
			p.AddChild(target)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate relationships: %w", err)
	}
	return nil
}

// ListFamilies returns a summary of every archived family.
func (s *SQLiteStore) ListFamilies(ctx context.Context) ([]storage.FamilySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.name, f.saved_at, COUNT(p.id)
		FROM families f
		LEFT JOIN persons p ON p.family_id = f.id
		GROUP BY f.id
		ORDER BY f.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	defer rows.Close()

	var out []storage.FamilySummary
	for rows.Next() {
		var sum storage.FamilySummary
		if err := rows.Scan(&sum.Name, &sum.SavedAt, &sum.Members); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate families: %w", err)
	}
	return out, nil
}

// DeleteFamily removes the snapshot stored under name.
func (s *SQLiteStore) DeleteFamily(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	familyID, err := familyIDByName(ctx, tx, name)
	if err != nil {
		return err
	}
	for _, table := range []string{"relationships", "middle_names", "persons"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE family_id = ?", familyID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM families WHERE id = ?", familyID); err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func familyIDByName(ctx context.Context, q queryer, name string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, "SELECT id FROM families WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get family: %w", err)
	}
	return id, nil
}
