// Package board provides a durable, process-safe registry of work items
// shared by every agent in a team. The board is a single JSON document
// guarded by an advisory file lock, so multiple agents in one process or
// several processes sharing the directory observe a consistent view.
package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// ErrNotFound is returned for operations on a task id that does not exist.
var ErrNotFound = errors.New("task not found")

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status ends a task's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Task is a single work item on the board.
type Task struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body,omitempty"`
	Status    Status    `json:"status"`
	Owner     string    `json:"owner,omitempty"`
	BlockedBy []string  `json:"blockedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Blocked reports whether the task still has blocking dependencies.
func (t Task) Blocked() bool { return len(t.BlockedBy) > 0 }

// Update describes a partial mutation of a task. Nil fields are left
// unchanged.
type Update struct {
	Subject         *string
	Body            *string
	Status          *Status
	Owner           *string
	AddBlockedBy    []string
	RemoveBlockedBy []string
}

// document is the on-disk form of the board.
type document struct {
	NextID int    `json:"nextId"`
	Tasks  []Task `json:"tasks"`
}

// Board is a shared task board rooted at a directory containing
// board.json and its sibling lock file.
type Board struct {
	dir string
}

// New creates a Board backed by dir. The directory and board file are
// created lazily on first write.
func New(dir string) *Board {
	return &Board{dir: dir}
}

// Create adds a new pending task and returns it. Ids are stringified
// integers assigned from 1.
func (b *Board) Create(subject, body string) (Task, error) {
	var created Task
	err := b.withLock(func(doc *document) error {
		now := time.Now()
		created = Task{
			ID:        strconv.Itoa(doc.NextID),
			Subject:   subject,
			Body:      body,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		doc.NextID++
		doc.Tasks = append(doc.Tasks, created)
		return nil
	})
	return created, err
}

// Get returns the task with the given id.
func (b *Board) Get(id string) (Task, error) {
	var found Task
	err := b.withReadLock(func(doc *document) error {
		for _, t := range doc.Tasks {
			if t.ID == id {
				found = t
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	return found, err
}

// List returns every task ordered by id.
func (b *Board) List() ([]Task, error) {
	var tasks []Task
	err := b.withReadLock(func(doc *document) error {
		tasks = append(tasks, doc.Tasks...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool {
		a, _ := strconv.Atoi(tasks[i].ID)
		c, _ := strconv.Atoi(tasks[j].ID)
		return a < c
	})
	return tasks, nil
}

// Claimable returns pending tasks with no owner and no blockers, the set
// a worker may claim.
func (b *Board) Claimable() ([]Task, error) {
	all, err := b.List()
	if err != nil {
		return nil, err
	}
	var out []Task
	for _, t := range all {
		if t.Status == StatusPending && t.Owner == "" && !t.Blocked() {
			out = append(out, t)
		}
	}
	return out, nil
}

// Apply mutates the task with the given id and returns the new value.
// When the status transitions to completed or cancelled, the id is removed
// from every other task's blockedBy set in the same locked write.
func (b *Board) Apply(id string, u Update) (Task, error) {
	var updated Task
	err := b.withLock(func(doc *document) error {
		idx := -1
		for i := range doc.Tasks {
			if doc.Tasks[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		t := &doc.Tasks[idx]
		if u.Subject != nil {
			t.Subject = *u.Subject
		}
		if u.Body != nil {
			t.Body = *u.Body
		}
		if u.Owner != nil {
			t.Owner = *u.Owner
		}
		if u.Status != nil {
			if !u.Status.Valid() {
				return fmt.Errorf("invalid status %q", *u.Status)
			}
			t.Status = *u.Status
		}
		for _, dep := range u.AddBlockedBy {
			if !contains(t.BlockedBy, dep) {
				t.BlockedBy = append(t.BlockedBy, dep)
			}
		}
		for _, dep := range u.RemoveBlockedBy {
			t.BlockedBy = remove(t.BlockedBy, dep)
		}
		t.UpdatedAt = time.Now()

		if t.Status.Terminal() {
			for i := range doc.Tasks {
				doc.Tasks[i].BlockedBy = remove(doc.Tasks[i].BlockedBy, id)
			}
		}

		updated = *t
		return nil
	})
	return updated, err
}

// --- internal helpers ---

func (b *Board) boardPath() string { return filepath.Join(b.dir, "board.json") }
func (b *Board) lockPath() string  { return b.boardPath() + ".lock" }

// withLock runs fn on the loaded document under an exclusive lock and
// persists the result atomically via a temp-file rename.
func (b *Board) withLock(fn func(*document) error) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create board directory: %w", err)
	}

	lock := flock.New(b.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire board lock: %w", err)
	}
	defer lock.Unlock()

	doc, err := b.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return b.store(doc)
}

// withReadLock runs fn on the loaded document under a shared lock.
func (b *Board) withReadLock(fn func(*document) error) error {
	lock := flock.New(b.lockPath())
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create board directory: %w", err)
	}
	if err := lock.RLock(); err != nil {
		return fmt.Errorf("acquire board lock: %w", err)
	}
	defer lock.Unlock()

	doc, err := b.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

func (b *Board) load() (*document, error) {
	data, err := os.ReadFile(b.boardPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &document{NextID: 1}, nil
		}
		return nil, fmt.Errorf("read board: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	if doc.NextID == 0 {
		doc.NextID = 1
	}
	return &doc, nil
}

func (b *Board) store(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	tmp := b.boardPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write board: %w", err)
	}
	return os.Rename(tmp, b.boardPath())
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func remove(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
