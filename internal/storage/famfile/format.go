package famfile

import (
	"encoding/xml"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/TheFirstGuy/AncestrE/internal/models"
)

const (
	// FamilyExt is the extension of the attributes file.
	FamilyExt = ".fam"
	// RelationshipsExt is the extension of the relationships file.
	RelationshipsExt = ".rel"

	dateLayout = "2006-01-02"
	indent     = "    "
)

// familyDoc is the attributes file: one <person> per member.
type familyDoc struct {
	XMLName xml.Name    `xml:"family"`
	Name    string      `xml:"name,attr"`
	People  []personDoc `xml:"person"`
}

type personDoc struct {
	UUID        string   `xml:"uuid"`
	FirstName   string   `xml:"firstName"`
	MiddleNames []string `xml:"middleNames>middleName"`
	LastName    string   `xml:"lastName"`
	Sex         string   `xml:"sex,omitempty"`
	BirthDate   string   `xml:"birthDate,omitempty"`
	DeathDate   string   `xml:"deathDate,omitempty"`
	Description string   `xml:"description"`
	ImagePath   string   `xml:"imagePath,omitempty"`
}

// relationshipsDoc is the relationships file. The root and person element
// names are matched case-insensitively on load.
type relationshipsDoc struct {
	XMLName xml.Name
	People  []relPerson `xml:",any"`
}

type relPerson struct {
	XMLName       xml.Name
	UUID          string   `xml:"uuid,attr"`
	Father        []relRef `xml:"Father"`
	Mother        []relRef `xml:"Mother"`
	CurrentSpouse []relRef `xml:"CurrentSpouse"`
	Spouses       *idList  `xml:"Spouses"`
	Children      *idList  `xml:"Children"`
	Siblings      *idList  `xml:"Siblings"`
}

type relRef struct {
	UUID string `xml:"uuid,attr"`
}

type idList struct {
	IDs []string `xml:"uuid"`
}

func encodePerson(p *models.Person) personDoc {
	d := personDoc{
		UUID:        p.ID.String(),
		FirstName:   p.FirstName,
		MiddleNames: p.MiddleNames,
		LastName:    p.LastName,
		Sex:         p.Sex.String(),
		Description: p.Description,
		ImagePath:   p.ImagePath,
	}
	if !p.BirthDate.IsZero() {
		d.BirthDate = p.BirthDate.Format(dateLayout)
	}
	if p.DeathDate != nil {
		d.DeathDate = p.DeathDate.Format(dateLayout)
	}
	return d
}

func decodePerson(d personDoc) (*models.Person, error) {
	id, err := uuid.Parse(d.UUID)
	if err != nil {
		return nil, fmt.Errorf("person %q has an invalid uuid: %w", d.FirstName, err)
	}
	p := &models.Person{
		ID:          id,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Description: d.Description,
		ImagePath:   d.ImagePath,
	}
	for _, m := range d.MiddleNames {
		p.AddMiddleName(m)
	}
	if d.Sex != "" {
		if p.Sex, err = models.ParseSex(d.Sex); err != nil {
			return nil, fmt.Errorf("person %s: %w", d.UUID, err)
		}
	}
	if d.BirthDate != "" {
		if p.BirthDate, err = time.Parse(dateLayout, d.BirthDate); err != nil {
			return nil, fmt.Errorf("person %s has an invalid birth date: %w", d.UUID, err)
		}
	}
	if d.DeathDate != "" {
		death, err := time.Parse(dateLayout, d.DeathDate)
		if err != nil {
			return nil, fmt.Errorf("person %s has an invalid death date: %w", d.UUID, err)
		}
		p.DeathDate = &death
	}
	return p, nil
}

// encodeRelationships writes links to members only; references to persons
// outside the family are dropped.
func encodeRelationships(f *models.Family) relationshipsDoc {
	doc := relationshipsDoc{XMLName: xml.Name{Local: "Relationships"}}
	for _, p := range f.Members() {
		rp := relPerson{
			XMLName: xml.Name{Local: "Person"},
			UUID:    p.ID.String(),
		}
		if father := f.Father(p); father != nil {
			rp.Father = []relRef{{UUID: father.ID.String()}}
		}
		if mother := f.Mother(p); mother != nil {
			rp.Mother = []relRef{{UUID: mother.ID.String()}}
		}
		if spouse := f.CurrentSpouse(p); spouse != nil {
			rp.CurrentSpouse = []relRef{{UUID: spouse.ID.String()}}
		}
		rp.Spouses = newIDList(f.Spouses(p))
		rp.Children = newIDList(f.Children(p))
		rp.Siblings = newIDList(f.Siblings(p))
		doc.People = append(doc.People, rp)
	}
	return doc
}

func newIDList(people []*models.Person) *idList {
	if len(people) == 0 {
		return nil
	}
	l := &idList{IDs: make([]string, len(people))}
	for i, p := range people {
		l.IDs[i] = p.ID.String()
	}
	return l
}

// checkFamily rejects text the XML encoder would silently replace with
// U+FFFD: invalid UTF-8 and characters outside the XML 1.0 Char range.
func checkFamily(f *models.Family) error {
	if err := checkText("family name", f.Name); err != nil {
		return err
	}
	for _, p := range f.Members() {
		fields := []struct{ name, value string }{
			{"firstName", p.FirstName},
			{"lastName", p.LastName},
			{"description", p.Description},
			{"imagePath", p.ImagePath},
		}
		for _, m := range p.MiddleNames {
			fields = append(fields, struct{ name, value string }{"middleName", m})
		}
		for _, fld := range fields {
			if err := checkText(fld.name, fld.value); err != nil {
				return fmt.Errorf("person %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

func checkText(field, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%s %q is not valid UTF-8: %w", field, s, ErrWrite)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%s %q contains %U, which XML cannot represent: %w", field, s, r, ErrWrite)
		}
	}
	return nil
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
