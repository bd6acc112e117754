package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheFirstGuy/AncestrE/internal/ancestry"
	"github.com/TheFirstGuy/AncestrE/internal/command"
	"github.com/TheFirstGuy/AncestrE/internal/models"
	"github.com/TheFirstGuy/AncestrE/internal/storage/famfile"
)

const dateLayout = "2006-01-02"

var errNoFile = errors.New("--file is required")

var (
	newDir string

	newCmd = &cobra.Command{
		Use:   "new [name]",
		Short: "Create an empty family file",
		Long:  `Creates <name>.fam and <name>.rel in --dir (default: the configured family directory).`,
		Args:  cobra.ExactArgs(1),
		RunE:  runNew,
	}

	personFirst  string
	personMiddle []string
	personLast   string
	personSex    string
	personBorn   string
	personDied   string
	personDesc   string
	personImage  string

	addCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a person to the family",
		Args:  cobra.NoArgs,
		RunE:  runAdd,
	}

	parentFather string
	parentMother string

	parentsCmd = &cobra.Command{
		Use:   "parents [child]",
		Short: "Set the father and mother of a person",
		Long:  `Persons are named by uuid or by full name. A parent whose flag is not given is kept; an empty --father or --mother clears that parent.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runParents,
	}
	marryCmd = &cobra.Command{
		Use:   "marry [person] [person]",
		Short: "Record a marriage between two persons",
		Args:  cobra.ExactArgs(2),
		RunE:  runMarry,
	}
	showCmd = &cobra.Command{
		Use:   "show",
		Short: "List the members of the family",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
	ancestorsCmd = &cobra.Command{
		Use:   "ancestors [person]",
		Short: "List every ancestor of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelatives(cmd, args[0], (*models.Family).Ancestors)
		},
	}
	descendantsCmd = &cobra.Command{
		Use:   "descendants [person]",
		Short: "List every descendant of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelatives(cmd, args[0], (*models.Family).Descendants)
		},
	}

	treeDown bool

	treeCmd = &cobra.Command{
		Use:   "tree [person]",
		Short: "Print the ancestry tree of a person",
		Long:  `Fails if the family contains a circular reference reachable from the person.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runTree,
	}

	archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Store a snapshot of the family in the SQLite archive",
		Args:  cobra.NoArgs,
		RunE:  runArchive,
	}
	restoreCmd = &cobra.Command{
		Use:   "restore [name]",
		Short: "Write an archived family back to .fam/.rel files",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List archived families",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
)

func init() {
	newCmd.Flags().StringVar(&newDir, "dir", "", "directory for the new files")
	restoreCmd.Flags().StringVar(&newDir, "dir", "", "directory for the restored files")

	addCmd.Flags().StringVar(&personFirst, "first", "", "first name")
	addCmd.Flags().StringSliceVar(&personMiddle, "middle", nil, "middle names, in order")
	addCmd.Flags().StringVar(&personLast, "last", "", "last name")
	addCmd.Flags().StringVar(&personSex, "sex", "", "MALE or FEMALE")
	addCmd.Flags().StringVar(&personBorn, "born", "", "birth date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&personDied, "died", "", "death date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&personDesc, "description", "", "free text description")
	addCmd.Flags().StringVar(&personImage, "image", "", "path to a portrait")
	addCmd.MarkFlagRequired("first")
	addCmd.MarkFlagRequired("sex")

	parentsCmd.Flags().StringVar(&parentFather, "father", "", "father")
	parentsCmd.Flags().StringVar(&parentMother, "mother", "", "mother")

	treeCmd.Flags().BoolVar(&treeDown, "descendants", false, "print the descendant tree instead")
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	dir := newDir
	if dir == "" {
		dir = s.svc.CurrentDirectory()
	}
	if err := ensureDir(dir); err != nil {
		return err
	}

	s.svc.New(args[0])
	if err := s.svc.SaveAs(ctx, dir, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.svc.FamilyFile())
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	sex, err := models.ParseSex(personSex)
	if err != nil {
		return err
	}
	var born time.Time
	if personBorn != "" {
		if born, err = time.Parse(dateLayout, personBorn); err != nil {
			return fmt.Errorf("invalid --born: %w", err)
		}
	}
	var died *time.Time
	if personDied != "" {
		d, err := time.Parse(dateLayout, personDied)
		if err != nil {
			return fmt.Errorf("invalid --died: %w", err)
		}
		died = &d
	}

	p := models.NewPerson(personFirst, personMiddle, personLast, sex, born, died)
	p.Description = personDesc
	p.ImagePath = personImage

	err = edit(cmd, func(f *models.Family) (command.Command, error) {
		return command.AddPerson(f, p), nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), p.ID)
	return nil
}

func runParents(cmd *cobra.Command, args []string) error {
	return edit(cmd, func(f *models.Family) (command.Command, error) {
		child, err := lookup(f, args[0])
		if err != nil {
			return nil, err
		}
		setFather, setMother := cmd.Flags().Changed("father"), cmd.Flags().Changed("mother")
		if !setFather && !setMother {
			return nil, errors.New("nothing to change: pass --father, --mother or both")
		}
		father, err := lookupOptional(f, parentFather)
		if err != nil {
			return nil, err
		}
		mother, err := lookupOptional(f, parentMother)
		if err != nil {
			return nil, err
		}
		switch {
		case setFather && setMother:
			return command.SetParents(f, child, father, mother), nil
		case setFather:
			return command.SetFather(f, child, father), nil
		default:
			return command.SetMother(f, child, mother), nil
		}
	})
}

func runMarry(cmd *cobra.Command, args []string) error {
	return edit(cmd, func(f *models.Family) (command.Command, error) {
		a, err := lookup(f, args[0])
		if err != nil {
			return nil, err
		}
		b, err := lookup(f, args[1])
		if err != nil {
			return nil, err
		}
		return command.Marry(f, a, b), nil
	})
}

// edit opens --file, submits the command built by build, and saves.
func edit(cmd *cobra.Command, build func(*models.Family) (command.Command, error)) error {
	if familyFile == "" {
		return errNoFile
	}
	ctx := cmd.Context()
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := s.svc.Family(ctx)
	if err != nil {
		return err
	}
	c, err := build(f)
	if err != nil {
		return err
	}
	if err := s.svc.Submit(c); err != nil {
		return err
	}
	return s.svc.Save(ctx)
}

func runShow(cmd *cobra.Command, args []string) error {
	f, done, err := readFamily(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s (%d members)\n", f.Name, f.Len())
	for _, p := range f.Members() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.FullName(), p.Sex, p.LifeTime())
	}
	return w.Flush()
}

func runRelatives(cmd *cobra.Command, who string, walk func(*models.Family, *models.Person) []*models.Person) error {
	f, done, err := readFamily(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	p, err := lookup(f, who)
	if err != nil {
		return err
	}
	return printPeople(cmd.OutOrStdout(), walk(f, p))
}

func runTree(cmd *cobra.Command, args []string) error {
	if familyFile == "" {
		return errNoFile
	}
	ctx := cmd.Context()
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := s.svc.Family(ctx)
	if err != nil {
		return err
	}
	p, err := lookup(f, args[0])
	if err != nil {
		return err
	}

	var tree *ancestry.Tree
	if treeDown {
		tree, err = ancestry.BuildDescendants(f, p)
	} else {
		tree, err = s.svc.AncestryTree(ctx, p.ID)
	}
	if err != nil {
		return err
	}
	return tree.Render(cmd.OutOrStdout())
}

func runArchive(cmd *cobra.Command, args []string) error {
	if familyFile == "" {
		return errNoFile
	}
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.svc.Archive(cmd.Context())
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := s.svc.Restore(ctx, args[0])
	if err != nil {
		return err
	}
	dir := newDir
	if dir == "" {
		dir = s.svc.CurrentDirectory()
	}
	if err := ensureDir(dir); err != nil {
		return err
	}
	if err := s.svc.SaveAs(ctx, dir, f.Name); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.svc.FamilyFile())
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.svc.ListArchived(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, sum := range list {
		fmt.Fprintf(w, "%s\t%d members\t%s\n", sum.Name, sum.Members, time.Unix(sum.SavedAt, 0).Format(time.DateTime))
	}
	return w.Flush()
}

// readFamily opens --file for reading. done releases the session.
func readFamily(ctx context.Context) (*models.Family, func(), error) {
	if familyFile == "" {
		return nil, nil, errNoFile
	}
	s, err := openSession(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.svc.Family(ctx)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return f, s.Close, nil
}

// lookup finds a member by uuid, or by full name when that is unique.
func lookup(f *models.Family, who string) (*models.Person, error) {
	if p := f.PersonByString(who); p != nil {
		return p, nil
	}
	var match *models.Person
	for _, p := range f.Members() {
		if strings.EqualFold(p.FullName(), who) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one person; use the uuid", who)
			}
			match = p
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%q: %w", who, command.ErrNotMember)
	}
	return match, nil
}

func lookupOptional(f *models.Family, who string) (*models.Person, error) {
	if who == "" {
		return nil, nil
	}
	return lookup(f, who)
}

func printPeople(w io.Writer, people []*models.Person) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range people {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.FullName(), p.LifeTime())
	}
	return tw.Flush()
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(filepath.Clean(dir), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %v: %w", dir, err, famfile.ErrNotDirectory)
	}
	return nil
}
