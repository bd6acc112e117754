package models

import (
	"slices"

	"github.com/google/uuid"
)

// Family is an identifier-keyed collection of Persons.
//
// Family is not safe for concurrent mutation. Writers are expected to go
// through a single command worker.
type Family struct {
	// Name is the display name of the family (e.g., "Smiths").
	Name string

	members map[uuid.UUID]*Person

	// order keeps Members deterministic for serialization.
	order []uuid.UUID
}

// NewFamily creates an empty family.
func NewFamily(name string) *Family {
	return &Family{
		Name:    name,
		members: make(map[uuid.UUID]*Person),
	}
}

// AddPerson inserts p, replacing any member with the same identifier.
func (f *Family) AddPerson(p *Person) {
	if f.members == nil {
		f.members = make(map[uuid.UUID]*Person)
	}
	if _, exists := f.members[p.ID]; !exists {
		f.order = append(f.order, p.ID)
	}
	f.members[p.ID] = p
}

// InsertPerson adds p at position i of Members, clamped to the valid range.
// A member with the same identifier is replaced in place instead.
func (f *Family) InsertPerson(i int, p *Person) {
	if f.members == nil {
		f.members = make(map[uuid.UUID]*Person)
	}
	if _, exists := f.members[p.ID]; !exists {
		i = max(0, min(i, len(f.order)))
		f.order = slices.Insert(f.order, i, p.ID)
	}
	f.members[p.ID] = p
}

// Index returns the position of the member with the given identifier in
// Members, or -1.
func (f *Family) Index(id uuid.UUID) int {
	if _, exists := f.members[id]; !exists {
		return -1
	}
	return slices.Index(f.order, id)
}

// RemovePerson drops p from the membership. Links that other members hold
// to p are left untouched. Removing a non-member is a no-op.
func (f *Family) RemovePerson(p *Person) {
	f.RemoveByID(p.ID)
}

// RemoveByID drops the member with the given identifier, if any.
func (f *Family) RemoveByID(id uuid.UUID) {
	if _, exists := f.members[id]; !exists {
		return
	}
	delete(f.members, id)
	if i := slices.Index(f.order, id); i >= 0 {
		f.order = slices.Delete(f.order, i, i+1)
	}
}

// IsMember reports whether p is the member registered under its identifier.
func (f *Family) IsMember(p *Person) bool {
	if p == nil {
		return false
	}
	m, ok := f.members[p.ID]
	return ok && m == p
}

// Person returns the member with the given identifier, or nil.
func (f *Family) Person(id uuid.UUID) *Person {
	if id == uuid.Nil {
		return nil
	}
	return f.members[id]
}

// PersonByString parses s as a UUID and looks it up. It returns nil for
// malformed identifiers as well as for non-members.
func (f *Family) PersonByString(s string) *Person {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return f.Person(id)
}

// Members returns all members in the order they were first added.
func (f *Family) Members() []*Person {
	out := make([]*Person, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.members[id])
	}
	return out
}

// Len returns the number of members.
func (f *Family) Len() int {
	return len(f.members)
}

// Mother resolves p's mother, or nil when unset or not a member.
func (f *Family) Mother(p *Person) *Person {
	return f.Person(p.MotherID)
}

// Father resolves p's father, or nil when unset or not a member.
func (f *Family) Father(p *Person) *Person {
	return f.Person(p.FatherID)
}

// CurrentSpouse resolves p's current spouse, or nil.
func (f *Family) CurrentSpouse(p *Person) *Person {
	return f.Person(p.CurrentSpouseID)
}

// Spouses resolves p's spouse history, skipping non-members.
func (f *Family) Spouses(p *Person) []*Person {
	return f.resolve(p.SpouseIDs)
}

// Children resolves p's children, skipping non-members.
func (f *Family) Children(p *Person) []*Person {
	return f.resolve(p.ChildIDs)
}

// Siblings returns the union of the mother's and the father's children,
// without duplicates. p itself is never included, even when a parent lists
// it as a child.
func (f *Family) Siblings(p *Person) []*Person {
	seen := map[uuid.UUID]bool{p.ID: true}
	var out []*Person
	for _, parent := range []*Person{f.Father(p), f.Mother(p)} {
		if parent == nil {
			continue
		}
		for _, c := range f.Children(parent) {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Ancestors returns every member reachable through mother and father links.
// The walk terminates on cyclic graphs and never returns duplicates.
// Results are in discovery order (father's line before mother's).
func (f *Family) Ancestors(p *Person) []*Person {
	visited := make(map[uuid.UUID]bool)
	var out []*Person
	f.collectAncestors(p, visited, &out)
	return out
}

func (f *Family) collectAncestors(p *Person, visited map[uuid.UUID]bool, out *[]*Person) {
	for _, parent := range []*Person{f.Father(p), f.Mother(p)} {
		if parent == nil || visited[parent.ID] {
			continue
		}
		visited[parent.ID] = true
		*out = append(*out, parent)
		f.collectAncestors(parent, visited, out)
	}
}

// Descendants returns every member reachable through child links.
// Like Ancestors it is cycle-safe and duplicate-free.
func (f *Family) Descendants(p *Person) []*Person {
	visited := make(map[uuid.UUID]bool)
	var out []*Person
	f.collectDescendants(p, visited, &out)
	return out
}

func (f *Family) collectDescendants(p *Person, visited map[uuid.UUID]bool, out *[]*Person) {
	for _, child := range f.Children(p) {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		*out = append(*out, child)
		f.collectDescendants(child, visited, out)
	}
}

func (f *Family) resolve(ids []uuid.UUID) []*Person {
	out := make([]*Person, 0, len(ids))
	for _, id := range ids {
		if m := f.Person(id); m != nil {
			out = append(out, m)
		}
	}
	return out
}
