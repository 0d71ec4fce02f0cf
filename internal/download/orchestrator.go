package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ytget/ytin/internal/model"
	"github.com/ytget/ytin/internal/platform"
)

// RunIDPrefix prefixes orchestrator run identifiers
const RunIDPrefix = "run_"

// Orchestrator drives a single download run through
// Idle -> Running -> {Completed, Failed, Stopped}. An instance is used once;
// every new download gets a fresh orchestrator.
type Orchestrator struct {
	id         string
	runner     Runner
	classifier *Classifier
	log        zerolog.Logger
	now        func() time.Time

	// lineMu serializes line handling and the events it emits
	lineMu sync.Mutex

	mu            sync.Mutex
	state         model.RunState
	record        *model.MediaRecord
	cancel        context.CancelFunc
	stopRequested bool
	failure       *DownloadError
	subscribers   map[int]Subscriber
	nextSub       int
}

// NewOrchestrator creates an idle orchestrator around the runner
func NewOrchestrator(runner Runner, log zerolog.Logger) *Orchestrator {
	id := generateRunID()
	return &Orchestrator{
		id:          id,
		runner:      runner,
		classifier:  NewClassifier(),
		log:         log.With().Str("run", id).Logger(),
		now:         time.Now,
		state:       model.RunStateIdle,
		subscribers: make(map[int]Subscriber),
	}
}

// ID returns the run identifier
func (o *Orchestrator) ID() string {
	return o.id
}

// State returns the current run state
func (o *Orchestrator) State() model.RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns a copy of the record being downloaded
func (o *Orchestrator) Snapshot() *model.MediaRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.record.Clone()
}

// Subscribe registers fn for run events and returns a function removing it
func (o *Orchestrator) Subscribe(fn Subscriber) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := o.nextSub
	o.nextSub++
	o.subscribers[key] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subscribers, key)
	}
}

// Start launches the download and blocks until the process exits, a
// classified error terminates it, or Stop is called. The record is updated
// in place as output arrives. It returns nil on completion, a
// *DownloadError on failure, ErrStopped after Stop or context cancellation,
// or the launch error when the tool could not start.
func (o *Orchestrator) Start(ctx context.Context, args []string, record *model.MediaRecord) error {
	o.mu.Lock()
	if o.state != model.RunStateIdle {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	if o.stopRequested {
		o.record = record
		o.state = model.RunStateStopped
		stopped := o.eventLocked(EventStopped, "")
		o.mu.Unlock()

		o.log.Warn().Str("title", record.GetDisplayTitle()).Msg("download stopped before start")
		o.emit(stopped)
		return ErrStopped
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	record.ResetProgress()
	o.record = record
	o.cancel = cancel
	o.state = model.RunStateRunning
	started := o.eventLocked(EventStarted, "")
	o.mu.Unlock()

	o.log.Info().Str("title", record.GetDisplayTitle()).Str("file", record.FileName).Msg("download started")
	o.emit(started)

	runErr := o.runner.RunDownload(runCtx, args, o.handleLine)
	return o.finish(ctx, runErr)
}

// Stop kills the active process. Called while Idle it marks the run so
// that Start returns ErrStopped without launching; once finished it is a
// no-op.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopRequested || o.state.IsFinished() {
		o.mu.Unlock()
		return
	}
	if o.state == model.RunStateIdle {
		o.stopRequested = true
		o.mu.Unlock()
		return
	}
	o.stopRequested = true
	cancel := o.cancel
	o.mu.Unlock()

	cancel()
	o.runner.Terminate()
}

func (o *Orchestrator) handleLine(line platform.Line) {
	o.lineMu.Lock()
	defer o.lineMu.Unlock()

	o.mu.Lock()
	if o.state != model.RunStateRunning || o.failure != nil || o.stopRequested {
		o.mu.Unlock()
		return
	}
	result := o.classifier.Classify(line, o.record)

	var event *Event
	switch result.Kind {
	case LineProgress, LineCompleted:
		ev := o.eventLocked(EventProgress, "")
		event = &ev
	case LineError:
		o.failure = &DownloadError{RecordID: o.record.ID, Line: line.Text, Message: result.Message}
	}
	failed := o.failure
	o.mu.Unlock()

	o.log.Debug().Str("stream", line.Stream.String()).Msg(line.Text)

	if failed != nil {
		o.log.Error().Str("line", line.Text).Msg(failed.Message)
		o.runner.Terminate()
		return
	}
	if event != nil {
		o.emit(*event)
	}
}

func (o *Orchestrator) finish(ctx context.Context, runErr error) error {
	o.lineMu.Lock()
	defer o.lineMu.Unlock()

	o.mu.Lock()
	var (
		err  error
		kind EventKind
		msg  string
	)
	switch {
	case o.failure != nil:
		o.state = model.RunStateFailed
		err, kind, msg = o.failure, EventFailed, o.failure.Message
	case o.stopRequested || ctx.Err() != nil:
		o.state = model.RunStateStopped
		err, kind = ErrStopped, EventStopped
	case errors.Is(runErr, platform.ErrLaunchFailure):
		o.state = model.RunStateFailed
		err, kind, msg = runErr, EventFailed, runErr.Error()
	case runErr != nil:
		o.state = model.RunStateFailed
		failure := &DownloadError{RecordID: o.record.ID, Message: "external tool exited with an error", Err: runErr}
		err, kind, msg = failure, EventFailed, failure.Message
	default:
		o.record.MarkComplete("")
		o.record.SaveTimestamp = o.now()
		o.state = model.RunStateCompleted
		kind = EventCompleted
	}
	event := o.eventLocked(kind, msg)
	title := o.record.GetDisplayTitle()
	o.mu.Unlock()

	switch kind {
	case EventCompleted:
		o.log.Info().Str("title", title).Msg("download complete")
	case EventStopped:
		o.log.Warn().Str("title", title).Msg("download stopped")
	default:
		o.log.Error().Err(err).Str("title", title).Msg("download failed")
	}
	o.emit(event)
	return err
}

func (o *Orchestrator) eventLocked(kind EventKind, msg string) Event {
	return Event{
		RunID:    o.id,
		Kind:     kind,
		RecordID: o.record.ID,
		Title:    o.record.Title,
		State:    o.state,
		Progress: o.record.Progress(),
		Message:  msg,
	}
}

func (o *Orchestrator) emit(event Event) {
	o.mu.Lock()
	subs := make([]Subscriber, 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// generateRunID generates a unique run ID
func generateRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(RunIDPrefix+"%d", time.Now().UnixNano())
	}
	return RunIDPrefix + id.String()
}
