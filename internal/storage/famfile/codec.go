// Package famfile persists a Family as two XML documents: an attributes file
// (.fam) holding every member's scalar fields, and a relationships file
// (.rel) holding parent, spouse and child links keyed by member uuid.
package famfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/TheFirstGuy/AncestrE/internal/models"
)

// Report describes a completed Load.
type Report struct {
	FamilyFile        string
	RelationshipsFile string

	// Loaded is the number of persons read from the attributes file.
	Loaded int

	// Warnings lists relationship entries that could not be resolved and
	// were skipped.
	Warnings []string
}

func (r *Report) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	slog.Warn("Relationship skipped", "file", r.RelationshipsFile, "reason", msg)
}

// Codec saves and loads families through a FileSystem.
type Codec struct {
	fs FileSystem
}

// New creates a Codec on the local disk.
func New() *Codec {
	return &Codec{fs: OSFileSystem{}}
}

// NewWithFS creates a Codec on the given FileSystem.
func NewWithFS(fsys FileSystem) *Codec {
	return &Codec{fs: fsys}
}

// Save writes <baseName>.fam and <baseName>.rel into dir. Both files must be
// written for Save to succeed; a written .fam is left in place when the .rel
// fails.
func (c *Codec) Save(f *models.Family, baseName, dir string) error {
	info, err := c.fs.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("the selected directory %s does not exist: %w", dir, ErrNotExist)
	case err != nil:
		return fmt.Errorf("the selected directory %s is not readable: %v: %w", dir, err, ErrUnreadable)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory: %w", dir, ErrNotDirectory)
	}

	baseName = strings.TrimSuffix(baseName, FamilyExt)
	if baseName == "" || strings.ContainsAny(baseName, `/\`) {
		return fmt.Errorf("invalid file name %q: %w", baseName, ErrWrite)
	}
	if err := checkFamily(f); err != nil {
		return fmt.Errorf("unable to save %s: %w", f.Name, err)
	}

	familyPath := filepath.Join(dir, baseName+FamilyExt)
	relPath := filepath.Join(dir, baseName+RelationshipsExt)

	doc := familyDoc{Name: f.Name}
	for _, p := range f.Members() {
		doc.People = append(doc.People, encodePerson(p))
	}
	if err := c.writeXML(familyPath, doc); err != nil {
		slog.Error("Save family failed", "family", f.Name, "path", familyPath, "error", err)
		return fmt.Errorf("unable to save %s file %s: %w", FamilyExt, familyPath, err)
	}

	if err := c.writeXML(relPath, encodeRelationships(f)); err != nil {
		slog.Error("Save relationships failed", "family", f.Name, "path", relPath, "error", err)
		return fmt.Errorf("unable to save %s file %s: %w", RelationshipsExt, relPath, err)
	}

	slog.Info("Family saved", "family", f.Name, "members", f.Len(), "path", familyPath)
	return nil
}

// Load reads the attributes file at path and its sibling relationships file
// into f.
//
// Persons from the attributes file are added to f before the relationships
// file is opened, so they stay loaded when the relationships fail. Entries
// that reference unknown persons are skipped and listed in the report's
// warnings without failing the load.
func (c *Codec) Load(f *models.Family, path string) (*Report, error) {
	relPath := RelationshipsPath(path)
	report := &Report{FamilyFile: path, RelationshipsFile: relPath}

	r, err := c.openFile(path)
	if err != nil {
		return report, err
	}
	var doc familyDoc
	err = decode(r, &doc)
	r.Close()
	if err != nil {
		return report, fmt.Errorf("unable to load %s file %s: %w", FamilyExt, path, err)
	}

	people := make([]*models.Person, 0, len(doc.People))
	seen := make(map[uuid.UUID]bool, len(doc.People))
	for _, d := range doc.People {
		p, err := decodePerson(d)
		if err != nil {
			return report, fmt.Errorf("unable to load %s file %s: %v: %w", FamilyExt, path, err, ErrParse)
		}
		if seen[p.ID] {
			report.warn("person %s appears more than once; the last entry wins", p.ID)
		}
		seen[p.ID] = true
		people = append(people, p)
	}
	if doc.Name != "" {
		f.Name = doc.Name
	}
	for _, p := range people {
		f.AddPerson(p)
	}
	report.Loaded = len(people)

	rr, err := c.openFile(relPath)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return report, fmt.Errorf("%s has no relationship file %s: %w", path, relPath, ErrMissingRelationships)
		}
		return report, err
	}
	var rel relationshipsDoc
	err = decode(rr, &rel)
	rr.Close()
	if err == nil && !strings.EqualFold(rel.XMLName.Local, "Relationships") {
		err = fmt.Errorf("unexpected root element <%s>: %w", rel.XMLName.Local, ErrParse)
	}
	if err != nil {
		return report, fmt.Errorf("unable to load %s file %s: %w", RelationshipsExt, relPath, err)
	}

	for _, rp := range rel.People {
		if !strings.EqualFold(rp.XMLName.Local, "Person") {
			report.warn("unexpected element <%s>", rp.XMLName.Local)
			continue
		}
		resolve(f, rp, report)
	}

	slog.Info("Family loaded",
		"family", f.Name,
		"members", report.Loaded,
		"warnings", len(report.Warnings),
		"path", path,
	)
	return report, nil
}

// RelationshipsPath derives the relationships file path from an attributes
// file path by replacing its extension.
func RelationshipsPath(familyPath string) string {
	return strings.TrimSuffix(familyPath, filepath.Ext(familyPath)) + RelationshipsExt
}

// resolve applies the links of one relationships entry to its person.
func resolve(f *models.Family, rp relPerson, report *Report) {
	p := f.PersonByString(rp.UUID)
	if p == nil {
		report.warn("unknown person %q", rp.UUID)
		return
	}

	single := func(field string, refs []relRef, set func(*models.Person)) {
		switch len(refs) {
		case 0:
			return
		case 1:
			target := f.PersonByString(refs[0].UUID)
			if target == nil {
				report.warn("%s of %s references unknown person %q", field, p.ID, refs[0].UUID)
				return
			}
			set(target)
		default:
			report.warn("%s of %s has %d entries; expected at most one", field, p.ID, len(refs))
		}
	}
	single("Father", rp.Father, p.SetFather)
	single("Mother", rp.Mother, p.SetMother)
	single("CurrentSpouse", rp.CurrentSpouse, p.SetCurrentSpouse)

	list := func(field string, l *idList, add func(*models.Person) bool) {
		if l == nil {
			return
		}
		for _, s := range l.IDs {
			target := f.PersonByString(strings.TrimSpace(s))
			if target == nil {
				report.warn("%s of %s references unknown person %q", field, p.ID, s)
				continue
			}
			add(target)
		}
	}
	list("Spouses", rp.Spouses, p.AddSpouse)
	list("Children", rp.Children, p.AddChild)
}

// openFile checks that path is an existing, readable regular file.
func (c *Codec) openFile(path string) (io.ReadCloser, error) {
	name := filepath.Base(path)
	info, err := c.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("the selected file %s does not exist: %w", name, ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("the selected file %s is not readable: %v: %w", name, err, ErrUnreadable)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("the selected file %s is not a file: %w", name, ErrNotFile)
	}
	r, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("the selected file %s is not readable: %v: %w", name, err, ErrUnreadable)
	}
	return r, nil
}

func (c *Codec) writeXML(path string, v any) (err error) {
	w, err := c.fs.Create(path)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrWrite)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%v: %w", cerr, ErrWrite)
		}
	}()

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("%v: %w", err, ErrWrite)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", indent)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%v: %w", err, ErrWrite)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrWrite)
	}
	_, err = io.WriteString(w, "\n")
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrWrite)
	}
	return nil
}

func decode(r io.Reader, v any) error {
	if err := xml.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%v: %w", err, ErrParse)
	}
	return nil
}

var defaultCodec = New()

// Save writes f to disk with the default Codec.
func Save(f *models.Family, baseName, dir string) error {
	return defaultCodec.Save(f, baseName, dir)
}

// Load reads f from disk with the default Codec.
func Load(f *models.Family, path string) (*Report, error) {
	return defaultCodec.Load(f, path)
}
