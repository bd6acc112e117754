package command

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/TheFirstGuy/AncestrE/internal/models"
)

// ErrNotMember is returned when a command refers to a person outside its family.
var ErrNotMember = errors.New("person is not a member of the family")

// AddPerson adds p to f. Undo removes it again, or puts back the member it
// replaced in its original position.
func AddPerson(f *models.Family, p *models.Person) Command {
	var replaced *models.Person
	return &Func{
		Label: "add_person",
		Do: func() error {
			replaced = f.Person(p.ID)
			f.AddPerson(p)
			return nil
		},
		UndoFn: func() error {
			if replaced != nil {
				f.AddPerson(replaced)
				return nil
			}
			f.RemovePerson(p)
			return nil
		},
	}
}

// RemovePerson removes p from f's membership. Links held by other members
// are not touched, so Undo fully restores the previous graph, including
// p's position in Members.
func RemovePerson(f *models.Family, p *models.Person) Command {
	index := -1
	return &Func{
		Label: "remove_person",
		Do: func() error {
			if !f.IsMember(p) {
				return fmt.Errorf("%s: %w", p.FullName(), ErrNotMember)
			}
			index = f.Index(p.ID)
			f.RemovePerson(p)
			return nil
		},
		UndoFn: func() error {
			f.InsertPerson(index, p)
			return nil
		},
	}
}

// UpdatePerson replaces the scalar attributes of p. Undo restores the
// previous values.
func UpdatePerson(p *models.Person, attrs models.Attributes) Command {
	var previous models.Attributes
	return &Func{
		Label: "update_person",
		Do: func() error {
			previous = p.Attributes()
			p.SetAttributes(attrs)
			return nil
		},
		UndoFn: func() error {
			p.SetAttributes(previous)
			return nil
		},
	}
}

// SetFather makes father the father of child, moving child out of the
// previous father's children. A nil father clears the link.
func SetFather(f *models.Family, child, father *models.Person) Command {
	return &relink{
		name:  "set_father",
		check: func() error { return checkParent(f, child, father) },
		touched: func() []*models.Person {
			return []*models.Person{child, f.Father(child), father}
		},
		apply: func() {
			reparent(child, []*models.Person{f.Father(child)}, []*models.Person{father, f.Mother(child)}, father)
			child.SetFather(father)
		},
	}
}

// SetMother makes mother the mother of child, moving child out of the
// previous mother's children. A nil mother clears the link.
func SetMother(f *models.Family, child, mother *models.Person) Command {
	return &relink{
		name:  "set_mother",
		check: func() error { return checkParent(f, child, mother) },
		touched: func() []*models.Person {
			return []*models.Person{child, f.Mother(child), mother}
		},
		apply: func() {
			reparent(child, []*models.Person{f.Mother(child)}, []*models.Person{f.Father(child), mother}, mother)
			child.SetMother(mother)
		},
	}
}

// SetParents sets both parents of child in one undoable step.
func SetParents(f *models.Family, child, father, mother *models.Person) Command {
	return &relink{
		name: "set_parents",
		check: func() error {
			if err := checkParent(f, child, father); err != nil {
				return err
			}
			return checkParent(f, child, mother)
		},
		touched: func() []*models.Person {
			return []*models.Person{child, f.Father(child), f.Mother(child), father, mother}
		},
		apply: func() {
			old := []*models.Person{f.Father(child), f.Mother(child)}
			reparent(child, old, []*models.Person{father, mother}, father, mother)
			child.SetFather(father)
			child.SetMother(mother)
		},
	}
}

// AddChild records child among parent's children without touching the
// child's own parent links.
func AddChild(f *models.Family, parent, child *models.Person) Command {
	return &relink{
		name:    "add_child",
		check:   func() error { return checkMembers(f, parent, child) },
		touched: func() []*models.Person { return []*models.Person{parent} },
		apply:   func() { parent.AddChild(child) },
	}
}

// AddSpouse records spouse in p's spouse history.
func AddSpouse(f *models.Family, p, spouse *models.Person) Command {
	return &relink{
		name:    "add_spouse",
		check:   func() error { return checkMembers(f, p, spouse) },
		touched: func() []*models.Person { return []*models.Person{p} },
		apply:   func() { p.AddSpouse(spouse) },
	}
}

// SetCurrentSpouse sets p's current spouse. A nil spouse clears it.
func SetCurrentSpouse(f *models.Family, p, spouse *models.Person) Command {
	return &relink{
		name: "set_current_spouse",
		check: func() error {
			if spouse == nil {
				return checkMembers(f, p)
			}
			return checkMembers(f, p, spouse)
		},
		touched: func() []*models.Person { return []*models.Person{p} },
		apply:   func() { p.SetCurrentSpouse(spouse) },
	}
}

// Marry records a and b in each other's spouse history and makes them each
// other's current spouse.
func Marry(f *models.Family, a, b *models.Person) Command {
	return &relink{
		name: "marry",
		check: func() error {
			if a.ID == b.ID {
				return errors.New("a person cannot marry themselves")
			}
			return checkMembers(f, a, b)
		},
		touched: func() []*models.Person { return []*models.Person{a, b} },
		apply: func() {
			a.AddSpouse(b)
			b.AddSpouse(a)
			a.SetCurrentSpouse(b)
			b.SetCurrentSpouse(a)
		},
	}
}

// relink is a Command that mutates relationship links only. It snapshots
// the links of every touched person before applying, and Undo restores
// those snapshots.
type relink struct {
	name    string
	check   func() error
	touched func() []*models.Person
	apply   func()

	saved map[*models.Person]links
}

func (r *relink) Name() string { return r.name }

func (r *relink) Execute() error {
	if r.check != nil {
		if err := r.check(); err != nil {
			return err
		}
	}
	r.saved = make(map[*models.Person]links)
	for _, p := range r.touched() {
		if p != nil {
			if _, ok := r.saved[p]; !ok {
				r.saved[p] = captureLinks(p)
			}
		}
	}
	r.apply()
	return nil
}

func (r *relink) Undo() error {
	if r.saved == nil {
		return errors.New("nothing to undo")
	}
	for p, l := range r.saved {
		l.restore(p)
	}
	r.saved = nil
	return nil
}

type links struct {
	mother, father, spouse uuid.UUID
	spouses, children      []uuid.UUID
}

func captureLinks(p *models.Person) links {
	return links{
		mother:   p.MotherID,
		father:   p.FatherID,
		spouse:   p.CurrentSpouseID,
		spouses:  slices.Clone(p.SpouseIDs),
		children: slices.Clone(p.ChildIDs),
	}
}

func (l links) restore(p *models.Person) {
	p.MotherID = l.mother
	p.FatherID = l.father
	p.CurrentSpouseID = l.spouse
	p.SpouseIDs = slices.Clone(l.spouses)
	p.ChildIDs = slices.Clone(l.children)
}

// reparent keeps the parents' child lists in step with a change of child's
// parent links. Every old parent not in keep loses child, then every added
// parent gains it. old and keep are resolved before any list changes, so
// swapping father and mother keeps both links.
func reparent(child *models.Person, old, keep []*models.Person, added ...*models.Person) {
	for _, p := range old {
		if p != nil && !slices.Contains(keep, p) {
			p.RemoveChild(child)
		}
	}
	for _, p := range added {
		if p != nil {
			p.AddChild(child)
		}
	}
}

func checkParent(f *models.Family, child, parent *models.Person) error {
	if parent == nil {
		return checkMembers(f, child)
	}
	if parent.ID == child.ID {
		return errors.New("a person cannot be their own parent")
	}
	return checkMembers(f, child, parent)
}

func checkMembers(f *models.Family, people ...*models.Person) error {
	for _, p := range people {
		if p == nil {
			return errors.New("missing person")
		}
		if !f.IsMember(p) {
			return fmt.Errorf("%s: %w", p.FullName(), ErrNotMember)
		}
	}
	return nil
}
