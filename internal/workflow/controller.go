// Package workflow drives the batch resize screen: pick images, name a
// folder for each, send them to the backend and hand back the archive.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/pixelfit/pixelfit/internal/api"
	"github.com/pixelfit/pixelfit/internal/ui"
)

const (
	MsgProcessing = "Processing..."
	MsgDone       = "Done! Your images are ready."
)

var (
	ErrNothingToProcess = errors.New("no images selected")
	ErrMissingFolder    = errors.New("every image needs a folder name")
	ErrBusy             = errors.New("a batch is already processing")
	ErrNoSuchEntry      = errors.New("no such entry")
	ErrNoArtifact       = errors.New("nothing to download yet")
	ErrClosed           = errors.New("workflow closed")
)

// State is the screen state.
type State string

const (
	StateEmpty      State = "empty"
	StateLoaded     State = "loaded"
	StateReady      State = "ready"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
)

// Processor resizes a batch. *api.Client implements it.
type Processor interface {
	Resize(ctx context.Context, uploads []api.Upload, folders []string) (*api.Archive, error)
}

// PendingEntry pairs a selected file with its output folder name.
type PendingEntry struct {
	File       File
	MainFolder string
}

// EntryView is the observable part of a PendingEntry.
type EntryView struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	MainFolder  string `json:"main_folder"`
}

// ArtifactView describes the archive on offer.
type ArtifactView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Size    int64    `json:"size"`
	Entries []string `json:"entries,omitempty"`
}

// Snapshot is the full observable state after a transition.
type Snapshot struct {
	State      State         `json:"state"`
	Entries    []EntryView   `json:"entries"`
	CanProcess bool          `json:"can_process"`
	Progress   int           `json:"progress"`
	Status     ui.Status     `json:"status"`
	Artifact   *ArtifactView `json:"artifact,omitempty"`
}

// Download records an archive saved to disk.
type Download struct {
	ArtifactID string
	Name       string
	Path       string
	Files      int
	Size       int64
}

// Option configures a Controller.
type Option func(*Controller)

// WithTempDir sets where archives wait until they are saved. Defaults to
// the system temp dir.
func WithTempDir(dir string) Option {
	return func(c *Controller) { c.tempDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller owns the batch, the in-flight request and the current archive.
// It is safe for concurrent use; the network call runs without the lock.
type Controller struct {
	processor Processor
	tempDir   string
	logger    *slog.Logger

	mu          sync.Mutex
	entries     []PendingEntry
	state       State
	progress    int
	status      ui.Status
	artifact    *Artifact
	files       int
	inFlight    bool
	generation  int
	closed      bool
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// New creates a Controller in the Empty state.
func New(processor Processor, opts ...Option) *Controller {
	c := &Controller{
		processor:   processor,
		state:       StateEmpty,
		logger:      slog.Default(),
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to receive a snapshot after every transition. The
// returned func removes it.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:      c.state,
		Entries:    make([]EntryView, len(c.entries)),
		CanProcess: c.canProcessLocked(),
		Progress:   c.progress,
		Status:     c.status,
	}
	for i, e := range c.entries {
		s.Entries[i] = EntryView{
			Name:        e.File.Name,
			ContentType: e.File.ContentType,
			Size:        e.File.Size,
			MainFolder:  e.MainFolder,
		}
	}
	if c.artifact != nil {
		s.Artifact = &ArtifactView{
			ID:      c.artifact.ID,
			Name:    c.artifact.DisplayName,
			Size:    c.artifact.Size,
			Entries: c.artifact.Entries,
		}
	}
	return s
}

// unlockAndNotify releases the lock and publishes the state it left.
func (c *Controller) unlockAndNotify() {
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Entries returns a copy of the pending batch.
func (c *Controller) Entries() []PendingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PendingEntry(nil), c.entries...)
}

// Select replaces the batch. Each file gets its default folder name and
// any previous archive is released.
func (c *Controller) Select(files []File) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.entries = make([]PendingEntry, len(files))
	for i, f := range files {
		c.entries[i] = PendingEntry{File: f, MainFolder: DefaultFolder(f.Name)}
	}
	c.generation++
	c.progress = 0
	c.status = ui.Status{}
	c.releaseLocked()
	c.state = c.editStateLocked()

	c.logger.Debug("batch selected", "files", len(files))
	c.unlockAndNotify()
	return nil
}

// SetFolder edits the folder name of entry i.
func (c *Controller) SetFolder(i int, name string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if i < 0 || i >= len(c.entries) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoSuchEntry, i)
	}

	c.entries[i].MainFolder = name
	if c.state == StateLoaded || c.state == StateReady {
		c.state = c.editStateLocked()
	}
	c.unlockAndNotify()
	return nil
}

// CanProcess reports whether the process action is enabled.
func (c *Controller) CanProcess() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canProcessLocked()
}

func (c *Controller) canProcessLocked() bool {
	return !c.inFlight && !c.closed && c.validateLocked() == nil
}

func (c *Controller) validateLocked() error {
	if len(c.entries) == 0 {
		return ErrNothingToProcess
	}
	for _, e := range c.entries {
		if strings.TrimSpace(e.MainFolder) == "" {
			return ErrMissingFolder
		}
	}
	return nil
}

func (c *Controller) editStateLocked() State {
	switch {
	case len(c.entries) == 0:
		return StateEmpty
	case c.validateLocked() == nil:
		return StateReady
	default:
		return StateLoaded
	}
}

// Process sends the batch to the backend. Validation failures return before
// any request is made. A backend or transport failure moves the controller
// to StateError and is returned as well.
func (c *Controller) Process(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.inFlight:
		c.mu.Unlock()
		return ErrBusy
	}
	if err := c.validateLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	entries := append([]PendingEntry(nil), c.entries...)
	generation := c.generation
	c.inFlight = true
	c.state = StateProcessing
	c.progress = 0
	c.status = ui.Info(MsgProcessing)
	c.unlockAndNotify()

	archive, err := c.send(ctx, entries)

	var artifact *Artifact
	if err == nil {
		artifact, err = newArtifact(c.tempDir, archive)
	}

	c.mu.Lock()
	c.inFlight = false
	if generation != c.generation || c.closed {
		// The batch was replaced while the request was out.
		if artifact != nil {
			artifact.Release()
		}
		c.unlockAndNotify()
		return err
	}

	if err != nil {
		c.state = StateError
		c.status = ui.Error("Error: " + failureMessage(err))
		c.logger.Debug("batch failed", "error", err)
	} else {
		c.releaseLocked()
		c.artifact = artifact
		c.files = len(entries)
		c.state = StateDone
		c.progress = 100
		c.status = ui.Success(MsgDone)
		c.logger.Debug("batch done", "artifact", artifact.ID, "bytes", artifact.Size)
	}
	c.unlockAndNotify()
	return err
}

func (c *Controller) send(ctx context.Context, entries []PendingEntry) (*api.Archive, error) {
	uploads := make([]api.Upload, len(entries))
	folders := make([]string, len(entries))
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	for i, e := range entries {
		body, err := e.File.Open()
		if err != nil {
			return nil, err
		}
		closers = append(closers, body)
		uploads[i] = api.Upload{Name: e.File.Name, ContentType: e.File.ContentType, Body: body}
		folders[i] = strings.TrimSpace(e.MainFolder)
	}
	return c.processor.Resize(ctx, uploads, folders)
}

func failureMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok {
		return apiErr.DetailOrBody()
	}
	if errors.Is(err, api.ErrUnavailable) {
		return "Could not reach the server. Please try again."
	}
	return err.Error()
}

// Artifact returns the archive on offer, nil if there is none.
func (c *Controller) Artifact() *Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// Download saves the current archive into dir.
func (c *Controller) Download(dir string) (Download, error) {
	c.mu.Lock()
	artifact, files := c.artifact, c.files
	c.mu.Unlock()
	if artifact == nil {
		return Download{}, ErrNoArtifact
	}

	path, err := artifact.SaveTo(dir)
	if err != nil {
		return Download{}, err
	}
	return Download{
		ArtifactID: artifact.ID,
		Name:       artifact.DisplayName,
		Path:       path,
		Files:      files,
		Size:       artifact.Size,
	}, nil
}

// Close releases the current archive. The controller rejects further
// actions.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	err := c.releaseLocked()
	c.unlockAndNotify()
	return err
}

func (c *Controller) releaseLocked() error {
	if c.artifact == nil {
		return nil
	}
	err := c.artifact.Release()
	c.artifact = nil
	c.files = 0
	return err
}
