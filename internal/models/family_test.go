package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// smiths builds the father/mother/child family used across tests.
func smiths(t *testing.T) (*Family, *Person, *Person, *Person) {
	t.Helper()

	fam := NewFamily("Smiths")
	father := NewPerson("John", nil, "Smith", Male, date(1950, time.March, 4), nil)
	mother := NewPerson("Mary", []string{"Ann"}, "Smith", Female, date(1952, time.May, 1), nil)
	child := NewPerson("Tom", nil, "Smith", Male, date(1980, time.July, 9), nil)

	child.SetFather(father)
	child.SetMother(mother)
	father.AddChild(child)
	mother.AddChild(child)

	for _, p := range []*Person{father, mother, child} {
		fam.AddPerson(p)
	}
	return fam, father, mother, child
}

func ids(people []*Person) []uuid.UUID {
	out := make([]uuid.UUID, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}

func TestFamilyMembership(t *testing.T) {
	fam, father, mother, child := smiths(t)

	t.Run("lookup by identifier", func(t *testing.T) {
		assert.Same(t, child, fam.Person(child.ID))
		assert.Same(t, father, fam.PersonByString(father.ID.String()))
		assert.Nil(t, fam.Person(uuid.New()))
		assert.Nil(t, fam.PersonByString("not-a-uuid"))
		assert.Nil(t, fam.Person(uuid.Nil))
	})

	t.Run("members keep insertion order", func(t *testing.T) {
		assert.Equal(t, []uuid.UUID{father.ID, mother.ID, child.ID}, ids(fam.Members()))
	})

	t.Run("add overwrites on identifier collision", func(t *testing.T) {
		f := NewFamily("x")
		p := NewPerson("A", nil, "B", Male, time.Time{}, nil)
		dup := *p
		dup.FirstName = "Replaced"
		f.AddPerson(p)
		f.AddPerson(&dup)

		assert.Equal(t, 1, f.Len())
		assert.Equal(t, "Replaced", f.Person(p.ID).FirstName)
		assert.False(t, f.IsMember(p), "stale pointer is no longer the member")
		assert.True(t, f.IsMember(&dup))
	})

	t.Run("remove leaves links dangling", func(t *testing.T) {
		f, dad, _, kid := smiths(t)
		f.RemovePerson(dad)
		f.RemovePerson(dad) // absent: no-op

		assert.False(t, f.IsMember(dad))
		assert.Equal(t, dad.ID, kid.FatherID)
		assert.Nil(t, f.Father(kid))

		f.AddPerson(dad)
		assert.Same(t, dad, f.Father(kid))
	})

	t.Run("insert at position", func(t *testing.T) {
		f, dad, mom, kid := smiths(t)
		i := f.Index(mom.ID)
		assert.Equal(t, 1, i)

		f.RemovePerson(mom)
		assert.Equal(t, -1, f.Index(mom.ID))
		f.InsertPerson(i, mom)
		assert.Equal(t, []uuid.UUID{dad.ID, mom.ID, kid.ID}, ids(f.Members()))

		extra := NewPerson("Extra", nil, "Smith", Male, time.Time{}, nil)
		f.InsertPerson(99, extra)
		assert.Equal(t, 3, f.Index(extra.ID), "position is clamped")

		f.InsertPerson(0, extra)
		assert.Equal(t, 3, f.Index(extra.ID), "existing member keeps its position")
	})
}

func TestInsertsAreIdempotent(t *testing.T) {
	p := NewPerson("Ada", []string{"Grace", "Grace", "Lee"}, "King", Female, time.Time{}, nil)
	assert.Equal(t, []string{"Grace", "Lee"}, p.MiddleNames)

	assert.False(t, p.AddMiddleName("Lee"))
	assert.Equal(t, []string{"Grace", "Lee"}, p.MiddleNames)

	c := NewPerson("Kid", nil, "King", Male, time.Time{}, nil)
	s := NewPerson("Spouse", nil, "King", Male, time.Time{}, nil)

	assert.True(t, p.AddChild(c))
	assert.False(t, p.AddChild(c))
	assert.Equal(t, []uuid.UUID{c.ID}, p.ChildIDs)

	assert.True(t, p.AddSpouse(s))
	assert.False(t, p.AddSpouse(s))
	assert.Equal(t, []uuid.UUID{s.ID}, p.SpouseIDs)
}

func TestAncestorsAndDescendants(t *testing.T) {
	fam, father, mother, child := smiths(t)

	assert.ElementsMatch(t, []uuid.UUID{father.ID, mother.ID}, ids(fam.Ancestors(child)))
	assert.ElementsMatch(t, []uuid.UUID{child.ID}, ids(fam.Descendants(father)))
	assert.Empty(t, fam.Ancestors(father))
	assert.Empty(t, fam.Descendants(child))

	grandchild := NewPerson("Tim", nil, "Smith", Male, time.Time{}, nil)
	grandchild.SetFather(child)
	child.AddChild(grandchild)
	fam.AddPerson(grandchild)

	assert.ElementsMatch(t, []uuid.UUID{child.ID, father.ID, mother.ID}, ids(fam.Ancestors(grandchild)))
	assert.ElementsMatch(t, []uuid.UUID{child.ID, grandchild.ID}, ids(fam.Descendants(mother)))
}

func TestTraversalTerminatesOnCycles(t *testing.T) {
	fam := NewFamily("Loop")
	a := NewPerson("A", nil, "L", Male, time.Time{}, nil)
	b := NewPerson("B", nil, "L", Male, time.Time{}, nil)
	c := NewPerson("C", nil, "L", Male, time.Time{}, nil)
	for _, p := range []*Person{a, b, c} {
		fam.AddPerson(p)
	}

	// a -> b -> c -> a through both parent and child links.
	a.SetFather(b)
	b.SetFather(c)
	c.SetFather(a)
	a.AddChild(c)
	c.AddChild(b)
	b.AddChild(a)

	anc := fam.Ancestors(a)
	require.Len(t, anc, 3)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID, c.ID}, ids(anc))

	desc := fam.Descendants(a)
	require.Len(t, desc, 3)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID, c.ID}, ids(desc))
}

func TestSiblings(t *testing.T) {
	fam, father, mother, child := smiths(t)

	sister := NewPerson("Sue", nil, "Smith", Female, time.Time{}, nil)
	sister.SetFather(father)
	sister.SetMother(mother)
	father.AddChild(sister)
	mother.AddChild(sister)
	fam.AddPerson(sister)

	half := NewPerson("Hal", nil, "Smith", Male, time.Time{}, nil)
	half.SetFather(father)
	father.AddChild(half)
	fam.AddPerson(half)

	got := fam.Siblings(child)
	assert.Equal(t, []uuid.UUID{sister.ID, half.ID}, ids(got), "self excluded, shared sibling listed once")
	assert.Equal(t, []uuid.UUID{child.ID, sister.ID}, ids(fam.Siblings(half)))
	assert.Empty(t, fam.Siblings(father))
}

func TestPersonFormatting(t *testing.T) {
	death := date(1990, time.June, 11)
	p := NewPerson("John", []string{"Paul"}, "Jones", Male, date(1921, time.March, 4), &death)

	assert.Equal(t, "John Paul Jones", p.FullName())
	assert.Equal(t, "March 04 1921 - June 11 1990", p.LifeTime())
	assert.False(t, p.IsAlive())

	p.DeathDate = nil
	assert.Equal(t, "March 04 1921 - Present", p.LifeTime())
	assert.True(t, p.IsAlive())
}

func TestParseSex(t *testing.T) {
	tests := []struct {
		in      string
		want    Sex
		wantErr bool
	}{
		{"MALE", Male, false},
		{"female", Female, false},
		{" F ", Female, false},
		{"other", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, must(ParseSex(got.String())))
		})
	}
}

func must(s Sex, err error) Sex {
	if err != nil {
		panic(err)
	}
	return s
}

func TestAttributesAreCopied(t *testing.T) {
	death := date(2000, time.January, 1)
	p := NewPerson("A", []string{"M"}, "B", Female, date(1900, time.January, 1), &death)
	a := p.Attributes()
	a.MiddleNames[0] = "changed"
	*a.DeathDate = date(2001, time.January, 1)

	assert.Equal(t, []string{"M"}, p.MiddleNames)
	assert.Equal(t, death, *p.DeathDate)

	p.SetAttributes(Attributes{FirstName: "Z", MiddleNames: []string{"x", "x", "y"}})
	assert.Equal(t, "Z", p.FirstName)
	assert.Equal(t, []string{"x", "y"}, p.MiddleNames)
	assert.Nil(t, p.DeathDate)
}
