package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sex is the biological sex recorded for a Person.
type Sex int

const (
	Male Sex = iota
	Female
)

// lifeTimeLayout formats the dates returned by Person.LifeTime.
const lifeTimeLayout = "January 02 2006"

// String returns the persisted form of the sex ("MALE" or "FEMALE").
func (s Sex) String() string {
	switch s {
	case Male:
		return "MALE"
	case Female:
		return "FEMALE"
	default:
		return fmt.Sprintf("Sex(%d)", int(s))
	}
}

// ParseSex parses the persisted form of a sex, case-insensitively.
func ParseSex(s string) (Sex, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MALE", "M":
		return Male, nil
	case "FEMALE", "F":
		return Female, nil
	default:
		return 0, fmt.Errorf("unknown sex: %q", s)
	}
}

// Person is a single member of a genealogical record.
//
// Relationship fields hold identifiers only. Use the owning Family to resolve
// them into live Persons.
type Person struct {
	// ID is assigned once by NewPerson and never reassigned.
	// It joins the attributes file and the relationships file.
	ID uuid.UUID

	FirstName string

	// MiddleNames is order-significant and never contains duplicates.
	// Append through AddMiddleName.
	MiddleNames []string

	LastName string
	Sex      Sex

	BirthDate time.Time

	// DeathDate is nil while the person is alive.
	DeathDate *time.Time

	Description string

	// ImagePath optionally references a portrait on disk. The file itself
	// is not managed here.
	ImagePath string

	// MotherID, FatherID and CurrentSpouseID are uuid.Nil when unset.
	MotherID        uuid.UUID
	FatherID        uuid.UUID
	CurrentSpouseID uuid.UUID

	// SpouseIDs is the ordered spouse history. It need not contain
	// CurrentSpouseID.
	SpouseIDs []uuid.UUID

	// ChildIDs is the ordered set of children.
	ChildIDs []uuid.UUID
}

// NewPerson creates a Person with a fresh identifier.
func NewPerson(firstName string, middleNames []string, lastName string, sex Sex, birthDate time.Time, deathDate *time.Time) *Person {
	p := &Person{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Sex:       sex,
		BirthDate: birthDate,
		DeathDate: deathDate,
	}
	for _, name := range middleNames {
		p.AddMiddleName(name)
	}
	return p
}

// IsAlive reports whether no death date is recorded.
func (p *Person) IsAlive() bool {
	return p.DeathDate == nil
}

// FullName joins first, middle and last names with single spaces.
func (p *Person) FullName() string {
	parts := make([]string, 0, len(p.MiddleNames)+2)
	if p.FirstName != "" {
		parts = append(parts, p.FirstName)
	}
	for _, m := range p.MiddleNames {
		if m != "" {
			parts = append(parts, m)
		}
	}
	if p.LastName != "" {
		parts = append(parts, p.LastName)
	}
	return strings.Join(parts, " ")
}

// LifeTime returns the period the person lived, e.g.
// "March 04 1921 - June 11 1990" or "March 04 1921 - Present".
func (p *Person) LifeTime() string {
	var b strings.Builder
	if !p.BirthDate.IsZero() {
		b.WriteString(p.BirthDate.Format(lifeTimeLayout))
	}
	b.WriteString(" - ")
	if p.DeathDate != nil {
		b.WriteString(p.DeathDate.Format(lifeTimeLayout))
	} else {
		b.WriteString("Present")
	}
	return b.String()
}

// AddMiddleName appends name unless it is already present.
// It reports whether the list changed.
func (p *Person) AddMiddleName(name string) bool {
	if slices.Contains(p.MiddleNames, name) {
		return false
	}
	p.MiddleNames = append(p.MiddleNames, name)
	return true
}

// AddSpouse records spouse in the spouse history unless already present.
// It reports whether the history changed.
func (p *Person) AddSpouse(spouse *Person) bool {
	return addID(&p.SpouseIDs, spouse.ID)
}

// AddChild records child unless already present.
// It reports whether the children changed.
func (p *Person) AddChild(child *Person) bool {
	return addID(&p.ChildIDs, child.ID)
}

// RemoveChild drops child from the children.
func (p *Person) RemoveChild(child *Person) bool {
	return removeID(&p.ChildIDs, child.ID)
}

// HasChild reports whether id is among the children.
func (p *Person) HasChild(id uuid.UUID) bool {
	return slices.Contains(p.ChildIDs, id)
}

// HasSpouse reports whether id is in the spouse history.
func (p *Person) HasSpouse(id uuid.UUID) bool {
	return slices.Contains(p.SpouseIDs, id)
}

// SetMother links mother, or clears the link when mother is nil.
func (p *Person) SetMother(mother *Person) {
	p.MotherID = idOf(mother)
}

// SetFather links father, or clears the link when father is nil.
func (p *Person) SetFather(father *Person) {
	p.FatherID = idOf(father)
}

// SetCurrentSpouse links spouse, or clears the link when spouse is nil.
func (p *Person) SetCurrentSpouse(spouse *Person) {
	p.CurrentSpouseID = idOf(spouse)
}

// Attributes returns a copy of the scalar fields of p with relationship
// links cleared.
func (p *Person) Attributes() Attributes {
	a := Attributes{
		FirstName:   p.FirstName,
		MiddleNames: slices.Clone(p.MiddleNames),
		LastName:    p.LastName,
		Sex:         p.Sex,
		BirthDate:   p.BirthDate,
		Description: p.Description,
		ImagePath:   p.ImagePath,
	}
	if p.DeathDate != nil {
		d := *p.DeathDate
		a.DeathDate = &d
	}
	return a
}

// SetAttributes replaces the scalar fields of p. Middle names are
// de-duplicated in order.
func (p *Person) SetAttributes(a Attributes) {
	p.FirstName = a.FirstName
	p.MiddleNames = nil
	for _, m := range a.MiddleNames {
		p.AddMiddleName(m)
	}
	p.LastName = a.LastName
	p.Sex = a.Sex
	p.BirthDate = a.BirthDate
	p.DeathDate = nil
	if a.DeathDate != nil {
		d := *a.DeathDate
		p.DeathDate = &d
	}
	p.Description = a.Description
	p.ImagePath = a.ImagePath
}

// Attributes is the editable, non-relational part of a Person.
type Attributes struct {
	FirstName   string
	MiddleNames []string
	LastName    string
	Sex         Sex
	BirthDate   time.Time
	DeathDate   *time.Time
	Description string
	ImagePath   string
}

func idOf(p *Person) uuid.UUID {
	if p == nil {
		return uuid.Nil
	}
	return p.ID
}

func addID(ids *[]uuid.UUID, id uuid.UUID) bool {
	if slices.Contains(*ids, id) {
		return false
	}
	*ids = append(*ids, id)
	return true
}

func removeID(ids *[]uuid.UUID, id uuid.UUID) bool {
	i := slices.Index(*ids, id)
	if i < 0 {
		return false
	}
	*ids = slices.Delete(*ids, i, i+1)
	return true
}
