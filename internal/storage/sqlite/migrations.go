package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Relationship rows reference persons by uuid only; a target may be missing
// from persons, mirroring the dangling links the model allows.
const schema = `
CREATE TABLE IF NOT EXISTS families (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS persons (
    family_id TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    sex TEXT NOT NULL,
    birth_date TEXT,
    death_date TEXT,
    description TEXT NOT NULL,
    image_path TEXT NOT NULL,
    PRIMARY KEY (family_id, id),
    FOREIGN KEY (family_id) REFERENCES families(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS middle_names (
    family_id TEXT NOT NULL,
    person_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (family_id, person_id, position),
    FOREIGN KEY (family_id, person_id) REFERENCES persons(family_id, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS relationships (
    family_id TEXT NOT NULL,
    person_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    position INTEGER NOT NULL,
    target_id TEXT NOT NULL,
    PRIMARY KEY (family_id, person_id, kind, position),
    FOREIGN KEY (family_id, person_id) REFERENCES persons(family_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_persons_family_id ON persons(family_id);
CREATE INDEX IF NOT EXISTS idx_relationships_family_id ON relationships(family_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
