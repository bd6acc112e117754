// Package ancestry builds display trees from a Family's parent and child links.
//
// The builders produce plain node/adjacency structures; drawing them is left
// to the caller.
package ancestry

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/TheFirstGuy/AncestrE/internal/models"
)

// ErrCircularReference reports that a person appears as their own ancestor
// (or descendant) along a single path.
var ErrCircularReference = errors.New("circular reference")

// CircularReferenceError carries the path that closed the cycle, from the
// first occurrence of the repeated person to its second occurrence.
type CircularReferenceError struct {
	Path []uuid.UUID
}

func (e *CircularReferenceError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return fmt.Sprintf("%s: %s", ErrCircularReference, strings.Join(parts, " -> "))
}

// Is makes errors.Is(err, ErrCircularReference) match.
func (e *CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference
}

// Node is one person in a display tree.
type Node struct {
	PersonID uuid.UUID
	Label    string

	// Adjacent holds the next generation: mother then father for ancestry
	// trees, children in order for descendant trees.
	Adjacent []*Node
}

// Edge is a directed link between two nodes.
type Edge struct {
	From, To uuid.UUID
}

// Tree is a display tree rooted at one person. A person reached along more
// than one path (pedigree collapse) has a single Node shared by both parents.
type Tree struct {
	Root  *Node
	Nodes map[uuid.UUID]*Node
}

// Edges lists every adjacency in depth-first order, without duplicates.
func (t *Tree) Edges() []Edge {
	var edges []Edge
	seen := make(map[uuid.UUID]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen[n.PersonID] {
			return
		}
		seen[n.PersonID] = true
		for _, next := range n.Adjacent {
			edges = append(edges, Edge{From: n.PersonID, To: next.PersonID})
			walk(next)
		}
	}
	if t.Root != nil {
		walk(t.Root)
	}
	return edges
}

// Render writes an indented outline of the tree. Shared nodes are printed
// at every position they occupy.
func (t *Tree) Render(w io.Writer) error {
	if t.Root == nil {
		return nil
	}
	var render func(n *Node, depth int) error
	render = func(n *Node, depth int) error {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n.Label); err != nil {
			return err
		}
		for _, next := range n.Adjacent {
			if err := render(next, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return render(t.Root, 0)
}

type state int

const (
	unvisited state = iota
	visiting
	built
)

// builder runs a depth-first walk with a three-colour marking. A person
// that is still being visited when reached again closes a cycle.
type builder struct {
	family *models.Family
	next   func(*models.Family, *models.Person) []*models.Person
	label  func(*models.Person) string

	nodes map[uuid.UUID]*Node
	marks map[uuid.UUID]state
	path  []uuid.UUID
}

func (b *builder) visit(p *models.Person) (*Node, error) {
	switch b.marks[p.ID] {
	case built:
		return b.nodes[p.ID], nil
	case visiting:
		return nil, b.cycle(p.ID)
	}

	b.marks[p.ID] = visiting
	b.path = append(b.path, p.ID)

	n := &Node{PersonID: p.ID, Label: b.label(p)}
	b.nodes[p.ID] = n

	for _, q := range b.next(b.family, p) {
		child, err := b.visit(q)
		if err != nil {
			return nil, err
		}
		n.Adjacent = append(n.Adjacent, child)
	}

	b.path = b.path[:len(b.path)-1]
	b.marks[p.ID] = built
	return n, nil
}

func (b *builder) cycle(id uuid.UUID) error {
	start := 0
	for i, pid := range b.path {
		if pid == id {
			start = i
			break
		}
	}
	path := make([]uuid.UUID, 0, len(b.path)-start+1)
	path = append(path, b.path[start:]...)
	path = append(path, id)
	return &CircularReferenceError{Path: path}
}

func (b *builder) build(root *models.Person) (*Tree, error) {
	if root == nil {
		return nil, errors.New("root person is required")
	}
	b.nodes = make(map[uuid.UUID]*Node)
	b.marks = make(map[uuid.UUID]state)

	n, err := b.visit(root)
	if err != nil {
		return nil, err
	}
	return &Tree{Root: n, Nodes: b.nodes}, nil
}

// Option customizes a builder.
type Option func(*builder)

// WithLabel sets the function used to label nodes. The default is
// Person.FullName.
func WithLabel(label func(*models.Person) string) Option {
	return func(b *builder) { b.label = label }
}

// Build returns the ancestry tree of root: root's node is adjacent to its
// mother's and father's nodes, and so on outward. A person whose ancestor
// chain returns to itself yields a *CircularReferenceError.
func Build(f *models.Family, root *models.Person, opts ...Option) (*Tree, error) {
	b := newBuilder(f, parents, opts)
	return b.build(root)
}

// BuildDescendants returns the tree of root's descendants following child
// links, with the same cycle rules as Build.
func BuildDescendants(f *models.Family, root *models.Person, opts ...Option) (*Tree, error) {
	b := newBuilder(f, (*models.Family).Children, opts)
	return b.build(root)
}

func newBuilder(f *models.Family, next func(*models.Family, *models.Person) []*models.Person, opts []Option) *builder {
	b := &builder{
		family: f,
		next:   next,
		label:  (*models.Person).FullName,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func parents(f *models.Family, p *models.Person) []*models.Person {
	var out []*models.Person
	if m := f.Mother(p); m != nil {
		out = append(out, m)
	}
	if fa := f.Father(p); fa != nil {
		out = append(out, fa)
	}
	return out
}
