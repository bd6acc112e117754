// Package service holds the session state of an editing session: the open
// family, its file, the selected person and the command queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/TheFirstGuy/AncestrE/internal/ancestry"
	"github.com/TheFirstGuy/AncestrE/internal/command"
	"github.com/TheFirstGuy/AncestrE/internal/config"
	"github.com/TheFirstGuy/AncestrE/internal/middleware"
	"github.com/TheFirstGuy/AncestrE/internal/models"
	"github.com/TheFirstGuy/AncestrE/internal/storage"
	"github.com/TheFirstGuy/AncestrE/internal/storage/famfile"
)

var (
	// ErrNoFamilyFile is returned by Save before the family has a file.
	ErrNoFamilyFile = errors.New("family has no file; use SaveAs")

	// ErrNoStore is returned by archive operations when no store is configured.
	ErrNoStore = errors.New("no archive store configured")

	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("family service closed")
)

// FamilyService owns one editing session. All mutation of the open family
// goes through Submit, Undo and Redo; readers call Flush (or a method that
// flushes) before inspecting the family.
type FamilyService struct {
	cfg   config.Config
	codec *famfile.Codec
	store storage.Store

	mu         sync.Mutex
	family     *models.Family
	familyFile string
	selected   uuid.UUID
	nodes      map[uuid.UUID]*ancestry.Node
	queue      *command.Queue
	stop       context.CancelFunc
	stopped    chan struct{}
	closed     bool
}

// NewFamilyService creates a service with an empty, unnamed family.
// store may be nil, which disables Archive, Restore and ListArchived.
func NewFamilyService(cfg config.Config, codec *famfile.Codec, store storage.Store) *FamilyService {
	if codec == nil {
		codec = famfile.New()
	}
	s := &FamilyService{cfg: cfg, codec: codec, store: store}
	s.reset(models.NewFamily(""), "")
	return s
}

// New starts a fresh session on an empty family called name.
func (s *FamilyService) New(name string) *models.Family {
	slog.Info("New family request received", "name", name)

	f := models.NewFamily(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(f, "")
	return f
}

// Open loads the family at path into a new session. The current session is
// kept when loading fails.
func (s *FamilyService) Open(ctx context.Context, path string) (*famfile.Report, error) {
	slog.Info("Open family request received", "path", path)

	f := models.NewFamily("")
	report, err := s.codec.Load(f, path)
	if err != nil {
		slog.Error("Open family failed", "path", path, "error", err)
		return report, err
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return report, ErrClosed
	}
	s.reset(f, path)

	slog.Info("Family opened", "family", f.Name, "members", f.Len(), "warnings", len(report.Warnings))
	return report, nil
}

// Save writes the family back to its file.
func (s *FamilyService) Save(ctx context.Context) error {
	s.mu.Lock()
	path := s.familyFile
	s.mu.Unlock()
	if path == "" {
		return ErrNoFamilyFile
	}
	return s.SaveAs(ctx, filepath.Dir(path), filepath.Base(path))
}

// SaveAs writes the family to dir/baseName and makes that the session's
// file. Queued commands are applied first.
func (s *FamilyService) SaveAs(ctx context.Context, dir, baseName string) error {
	slog.Info("Save family request received", "dir", dir, "name", baseName)

	if err := s.Flush(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.codec.Save(s.family, baseName, dir); err != nil {
		return err
	}
	s.familyFile = filepath.Join(dir, strings.TrimSuffix(baseName, famfile.FamilyExt)+famfile.FamilyExt)
	return nil
}

// Family returns the open family after applying queued commands.
func (s *FamilyService) Family(ctx context.Context) (*models.Family, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.family, nil
}

// FamilyFile returns the path of the session's .fam file, or "".
func (s *FamilyService) FamilyFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.familyFile
}

// CurrentDirectory returns the directory of the family file, falling back
// to the configured family directory.
func (s *FamilyService) CurrentDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.familyFile == "" {
		return s.cfg.FamilyDir
	}
	return filepath.Dir(s.familyFile)
}

// Select marks the member with the given id as the selected person.
// uuid.Nil clears the selection.
func (s *FamilyService) Select(ctx context.Context, id uuid.UUID) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != uuid.Nil && s.family.Person(id) == nil {
		return fmt.Errorf("select %s: %w", id, command.ErrNotMember)
	}
	s.selected = id
	return nil
}

// Selected returns the selected person, or nil when none is selected or the
// selection is no longer a member.
func (s *FamilyService) Selected() *models.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == uuid.Nil {
		return nil
	}
	return s.family.Person(s.selected)
}

// Submit enqueues cmd against the open family.
func (s *FamilyService) Submit(cmd command.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if cmd == nil {
		return errors.New("cannot submit nil command")
	}
	return s.queue.Submit(middleware.Logging(s.family.Name, cmd))
}

// Undo enqueues an undo of the most recent command.
func (s *FamilyService) Undo() error {
	q, err := s.activeQueue()
	if err != nil {
		return err
	}
	return q.Undo()
}

// Redo enqueues a redo of the most recently undone command.
func (s *FamilyService) Redo() error {
	q, err := s.activeQueue()
	if err != nil {
		return err
	}
	return q.Redo()
}

// SetHistoryCapacity resizes the undo and redo stacks.
func (s *FamilyService) SetHistoryCapacity(n int) error {
	q, err := s.activeQueue()
	if err != nil {
		return err
	}
	return q.SetCapacity(n)
}

// History reports the undoable command names, most recent first, and the
// number of redoable commands.
func (s *FamilyService) History() (undo []string, redo int) {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	return q.UndoNames(), q.RedoLen()
}

// Flush waits for queued commands and returns their errors.
func (s *FamilyService) Flush(ctx context.Context) error {
	q, err := s.activeQueue()
	if err != nil {
		return err
	}
	return q.Flush(ctx)
}

// AncestryTree builds the ancestry tree of the member with the given id and
// remembers its nodes for TreeNode.
func (s *FamilyService) AncestryTree(ctx context.Context, id uuid.UUID) (*ancestry.Tree, error) {
	slog.Info("AncestryTree request received", "person_id", id)

	if err := s.Flush(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	root := s.family.Person(id)
	if root == nil {
		return nil, fmt.Errorf("ancestry tree of %s: %w", id, command.ErrNotMember)
	}
	tree, err := ancestry.Build(s.family, root)
	if err != nil {
		slog.Warn("AncestryTree failed", "person_id", id, "error", err)
		return nil, err
	}
	s.nodes = tree.Nodes

	slog.Info("AncestryTree built", "person_id", id, "nodes", len(tree.Nodes))
	return tree, nil
}

// TreeNode returns the node for id in the last built ancestry tree.
func (s *FamilyService) TreeNode(id uuid.UUID) *ancestry.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id]
}

// Archive stores a snapshot of the open family.
func (s *FamilyService) Archive(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.Flush(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveFamily(ctx, s.family); err != nil {
		slog.Error("Archive failed", "family", s.family.Name, "error", err)
		return err
	}
	slog.Info("Family archived", "family", s.family.Name, "members", s.family.Len())
	return nil
}

// Restore replaces the session with the archived family called name.
func (s *FamilyService) Restore(ctx context.Context, name string) (*models.Family, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	f, err := s.store.GetFamily(ctx, name)
	if err != nil {
		slog.Error("Restore failed", "family", name, "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.reset(f, "")
	slog.Info("Family restored", "family", f.Name, "members", f.Len())
	return f, nil
}

// ListArchived lists archived families.
func (s *FamilyService) ListArchived(ctx context.Context) ([]storage.FamilySummary, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListFamilies(ctx)
}

// Close stops the command worker. Commands still queued are discarded.
func (s *FamilyService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopQueue()
}

func (s *FamilyService) activeQueue() (*command.Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.queue, nil
}

// reset must be called with s.mu held (or before s is shared).
func (s *FamilyService) reset(f *models.Family, path string) {
	s.stopQueue()

	s.family = f
	s.familyFile = path
	s.selected = uuid.Nil
	s.nodes = nil
	s.queue = command.NewQueue(s.cfg.QueueSize, s.cfg.HistoryCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.stopped = make(chan struct{})
	go func(q *command.Queue, done chan struct{}) {
		defer close(done)
		q.Run(ctx)
	}(s.queue, s.stopped)
}

func (s *FamilyService) stopQueue() {
	if s.stop == nil {
		return
	}
	s.stop()
	<-s.stopped
	s.stop = nil
}
