package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheFirstGuy/AncestrE/internal/models"
	"github.com/TheFirstGuy/AncestrE/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "ancestre-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	born := time.Date(1950, time.March, 4, 0, 0, 0, 0, time.UTC)
	died := time.Date(2010, time.October, 2, 0, 0, 0, 0, time.UTC)

	newSmiths := func() (*models.Family, *models.Person, *models.Person, *models.Person) {
		fam := models.NewFamily("Smiths")
		father := models.NewPerson("John", []string{"Henry", "James"}, "Smith", models.Male, born, nil)
		mother := models.NewPerson("Mary", nil, "Smith", models.Female, born, &died)
		mother.Description = "Née Jones"
		mother.ImagePath = "images/mary.png"
		child := models.NewPerson("Tom", nil, "Smith", models.Male, time.Time{}, nil)

		child.SetFather(father)
		child.SetMother(mother)
		father.AddChild(child)
		mother.AddChild(child)
		father.AddSpouse(mother)
		mother.AddSpouse(father)
		father.SetCurrentSpouse(mother)
		mother.SetCurrentSpouse(father)

		fam.AddPerson(father)
		fam.AddPerson(mother)
		fam.AddPerson(child)
		return fam, father, mother, child
	}

	t.Run("SaveFamily and GetFamily round trip", func(t *testing.T) {
		fam, father, mother, child := newSmiths()

		if err := store.SaveFamily(ctx, fam); err != nil {
			t.Fatalf("SaveFamily failed: %v", err)
		}

		got, err := store.GetFamily(ctx, "Smiths")
		if err != nil {
			t.Fatalf("GetFamily failed: %v", err)
		}

		if got.Len() != 3 {
			t.Fatalf("Expected 3 members, got %d", got.Len())
		}
		members := got.Members()
		for i, want := range []*models.Person{father, mother, child} {
			if members[i].ID != want.ID {
				t.Errorf("Member %d: expected %s, got %s", i, want.FullName(), members[i].FullName())
			}
		}

		gf := got.Person(father.ID)
		if gf.FullName() != "John Henry James Smith" {
			t.Errorf("Expected middle names in order, got %q", gf.FullName())
		}
		if !gf.BirthDate.Equal(born) {
			t.Errorf("Expected birth date %v, got %v", born, gf.BirthDate)
		}
		if !gf.IsAlive() {
			t.Error("Expected father to be alive")
		}

		gm := got.Person(mother.ID)
		if gm.DeathDate == nil || !gm.DeathDate.Equal(died) {
			t.Errorf("Expected death date %v, got %v", died, gm.DeathDate)
		}
		if gm.Sex != models.Female {
			t.Errorf("Expected FEMALE, got %s", gm.Sex)
		}
		if gm.Description != "Née Jones" || gm.ImagePath != "images/mary.png" {
			t.Errorf("Unexpected attributes: %+v", gm.Attributes())
		}

		gc := got.Person(child.ID)
		if !gc.BirthDate.IsZero() {
			t.Errorf("Expected zero birth date, got %v", gc.BirthDate)
		}
		if got.Father(gc) != gf || got.Mother(gc) != gm {
			t.Error("Expected parents to resolve to stored members")
		}
		if got.CurrentSpouse(gf) != gm || got.CurrentSpouse(gm) != gf {
			t.Error("Expected current spouses to resolve")
		}
		if children := got.Children(gf); len(children) != 1 || children[0] != gc {
			t.Errorf("Expected one child, got %d", len(children))
		}
	})

	t.Run("SaveFamily replaces existing snapshot", func(t *testing.T) {
		fam, father, _, child := newSmiths()
		fam.RemovePerson(child)
		father.RemoveChild(child)

		if err := store.SaveFamily(ctx, fam); err != nil {
			t.Fatalf("SaveFamily failed: %v", err)
		}

		got, err := store.GetFamily(ctx, "Smiths")
		if err != nil {
			t.Fatalf("GetFamily failed: %v", err)
		}
		if got.Len() != 2 {
			t.Errorf("Expected 2 members after replace, got %d", got.Len())
		}
		// The mother still lists the removed child; that link is dropped.
		for _, p := range got.Members() {
			if len(p.ChildIDs) != 0 {
				t.Errorf("Expected no children for %s, got %v", p.FullName(), p.ChildIDs)
			}
		}
	})

	t.Run("GetFamily returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetFamily(ctx, "Nobody")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveFamily requires a name", func(t *testing.T) {
		if err := store.SaveFamily(ctx, models.NewFamily("")); err == nil {
			t.Error("Expected error for unnamed family")
		}
	})

	t.Run("ListFamilies orders by name", func(t *testing.T) {
		if err := store.SaveFamily(ctx, models.NewFamily("Adams")); err != nil {
			t.Fatalf("SaveFamily failed: %v", err)
		}

		list, err := store.ListFamilies(ctx)
		if err != nil {
			t.Fatalf("ListFamilies failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("Expected 2 families, got %d", len(list))
		}
		if list[0].Name != "Adams" || list[0].Members != 0 {
			t.Errorf("Unexpected first summary: %+v", list[0])
		}
		if list[1].Name != "Smiths" || list[1].Members != 2 {
			t.Errorf("Unexpected second summary: %+v", list[1])
		}
		if list[1].SavedAt == 0 {
			t.Error("Expected SavedAt to be set")
		}
	})

	t.Run("DeleteFamily removes snapshot", func(t *testing.T) {
		if err := store.DeleteFamily(ctx, "Smiths"); err != nil {
			t.Fatalf("DeleteFamily failed: %v", err)
		}
		if _, err := store.GetFamily(ctx, "Smiths"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteFamily(ctx, "Smiths"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}
