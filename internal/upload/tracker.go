package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/finchat-dev/finchat/internal/gateway"
	"github.com/finchat-dev/finchat/internal/log"
)

var (
	// ErrNoFile is returned by Submit when no file has been selected.
	ErrNoFile = errors.New("no file selected")
	// ErrInFlight is returned while a transfer is still running.
	ErrInFlight = errors.New("an upload is already in progress")
)

// Failure messages shown to the user.
const (
	msgNetwork = "Upload failed due to network error"
	msgGeneric = "Upload failed"
)

var errOpen = errors.New("could not read file")

// Phase is the state of an upload session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInFlight:
		return "in-flight"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether no further transition happens for this submission.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// File is an opaque handle to a ledger selected for upload.
type File struct {
	Name string
	Size int64 // -1 when unknown
	Open func() (io.ReadCloser, error)
}

// OpenFile returns a File for a path on disk.
func OpenFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// Session is a snapshot of the tracker's state.
type Session struct {
	File         string
	Phase        Phase
	Percent      int  // 0..100, meaningful only when PercentKnown
	PercentKnown bool // false while the transport cannot report a length
	Rows         int  // set on PhaseSucceeded
	ErrorMessage string
}

// Uploader is the transport a Tracker drives.
type Uploader interface {
	UploadCSV(ctx context.Context, filename string, r io.Reader, size int64, progress gateway.ProgressFunc) (gateway.UploadResult, error)
}

// RefreshFunc runs after a successful upload.
type RefreshFunc func(ctx context.Context) error

// Option configures a Tracker.
type Option func(*Tracker)

// WithRefresh sets the callback run once after every successful upload.
func WithRefresh(fn RefreshFunc) Option {
	return func(t *Tracker) { t.refresh = fn }
}

// WithObserver registers a callback invoked with every state change.
func WithObserver(fn func(Session)) Option {
	return func(t *Tracker) { t.observe = fn }
}

// WithLogger sets the tracker's logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l.WithComponent(log.ComponentUpload) }
}

// Tracker drives a single file transfer through
// Idle -> InFlight -> Succeeded | Failed.
type Tracker struct {
	uploader Uploader
	refresh  RefreshFunc
	observe  func(Session)
	logger   *log.Logger

	mu      sync.Mutex
	file    *File
	session Session
	gen     uint64 // bumped on every submission; stale events carry an old value
}

// NewTracker creates an idle tracker.
func NewTracker(uploader Uploader, opts ...Option) *Tracker {
	t := &Tracker{
		uploader: uploader,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Session returns the current state.
func (t *Tracker) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Select chooses the file for the next submission, discarding any previous
// terminal state.
func (t *Tracker) Select(f File) error {
	t.mu.Lock()
	if t.session.Phase == PhaseInFlight {
		t.mu.Unlock()
		return ErrInFlight
	}
	t.file = &f
	t.session = Session{File: f.Name, Phase: PhaseIdle}
	snap := t.session
	t.mu.Unlock()

	t.notify(snap)
	return nil
}

// Submit uploads the selected file and blocks until the session reaches a
// terminal phase. The returned error only reports why a submission could not
// start; upload failures are recorded in the Session.
func (t *Tracker) Submit(ctx context.Context) (Session, error) {
	t.mu.Lock()
	if t.file == nil {
		t.mu.Unlock()
		return Session{}, ErrNoFile
	}
	if t.session.Phase == PhaseInFlight {
		snap := t.session
		t.mu.Unlock()
		return snap, ErrInFlight
	}
	f := *t.file
	t.gen++
	gen := t.gen
	t.session = Session{File: f.Name, Phase: PhaseInFlight}
	snap := t.session
	t.mu.Unlock()

	t.notify(snap)
	t.logger.Info("upload started", log.FieldOperation, log.OpUpload, log.FieldFile, f.Name)

	result, err := t.transfer(ctx, f, gen)
	final, ok := t.finish(gen, result, err)
	if ok && final.Phase == PhaseSucceeded && t.refresh != nil {
		if rerr := t.refresh(ctx); rerr != nil {
			t.logger.Warn("refresh after upload failed", log.FieldError, rerr)
		}
	}
	return final, nil
}

func (t *Tracker) transfer(ctx context.Context, f File, gen uint64) (gateway.UploadResult, error) {
	if f.Open == nil {
		return gateway.UploadResult{}, fmt.Errorf("%w: %s", errOpen, f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return gateway.UploadResult{}, fmt.Errorf("%w: %s: %w", errOpen, f.Name, err)
	}
	defer rc.Close()

	return t.uploader.UploadCSV(ctx, f.Name, rc, f.Size, func(sent, total int64) {
		t.progress(gen, sent, total)
	})
}

// progress records a transport progress event. Events without a known total
// leave the percentage unset, and the percentage never moves backwards.
func (t *Tracker) progress(gen uint64, sent, total int64) {
	if total <= 0 {
		return
	}
	percent := int(sent * 100 / total)
	percent = min(max(percent, 0), 100)

	t.mu.Lock()
	if gen != t.gen || t.session.Phase != PhaseInFlight {
		t.mu.Unlock()
		return
	}
	if t.session.PercentKnown && percent <= t.session.Percent {
		t.mu.Unlock()
		return
	}
	t.session.Percent = percent
	t.session.PercentKnown = true
	snap := t.session
	t.mu.Unlock()

	t.logger.Debug("upload progress", log.FieldFile, snap.File, log.FieldPercent, percent)
	t.notify(snap)
}

// finish moves the session to its terminal phase. It reports false when the
// submission already finished.
func (t *Tracker) finish(gen uint64, result gateway.UploadResult, err error) (Session, bool) {
	t.mu.Lock()
	if gen != t.gen || t.session.Phase != PhaseInFlight {
		snap := t.session
		t.mu.Unlock()
		return snap, false
	}

	switch {
	case err != nil:
		t.session.Phase = PhaseFailed
		t.session.ErrorMessage = failureMessage(err)
	case !result.OK:
		t.session.Phase = PhaseFailed
		t.session.ErrorMessage = result.Error
		if t.session.ErrorMessage == "" {
			t.session.ErrorMessage = msgGeneric
		}
	default:
		t.session.Phase = PhaseSucceeded
		t.session.Rows = result.Rows
	}
	snap := t.session
	t.mu.Unlock()

	if snap.Phase == PhaseSucceeded {
		t.logger.Info("upload succeeded", log.FieldFile, snap.File, log.FieldRows, snap.Rows)
	} else {
		t.logger.Warn("upload failed", log.FieldFile, snap.File, log.FieldPhase, snap.Phase.String(), log.FieldError, snap.ErrorMessage)
	}
	t.notify(snap)
	return snap, true
}

func failureMessage(err error) string {
	var se *gateway.StatusError
	switch {
	case errors.As(err, &se):
		return "Upload failed: " + se.StatusText()
	case errors.Is(err, errOpen):
		return "Upload failed: " + err.Error()
	case errors.Is(err, gateway.ErrInvalidResponse):
		return "Upload failed: invalid response from server"
	}
	return msgNetwork
}

func (t *Tracker) notify(s Session) {
	if t.observe != nil {
		t.observe(s)
	}
}
