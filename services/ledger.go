package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	errs "github.com/phillip/chama-tracker-go/errs"
	"github.com/phillip/chama-tracker-go/logger"
	models "github.com/phillip/chama-tracker-go/models"
	notify "github.com/phillip/chama-tracker-go/notify"
	store "github.com/phillip/chama-tracker-go/store"
)

const (
	maxSaveAttempts = 3
	defaultTimeout  = 10 * time.Second

	snapshotKey             = "snapshot"
	maxPendingNotifications = 16
	notifyTimeout           = 15 * time.Second
)

// Ledger owns every read-modify-write of the document. Writes are serialized
// in process and re-applied on a SHA conflict from the backend.
type Ledger struct {
	store    store.Store
	notifier notify.Notifier
	timeout  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	reads singleflight.Group

	notifySlots chan struct{}
	pending     sync.WaitGroup
}

type Option func(*Ledger)

func WithNotifier(n notify.Notifier) Option {
	return func(l *Ledger) {
		if n != nil {
			l.notifier = n
		}
	}
}

// WithTimeout bounds every individual store call.
func WithTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		notifier: notify.Nop{},
		timeout:  defaultTimeout,
		now:      time.Now,

		notifySlots: make(chan struct{}, maxPendingNotifications),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Backend() string { return l.store.Name() }

// ---------------- READ ----------------

// Snapshot returns the current document. Concurrent callers share one backend
// read; the shared read is not tied to any single caller's cancellation.
func (l *Ledger) Snapshot(ctx context.Context) (*store.Snapshot, error) {
	flight := l.reads.DoChan(snapshotKey, func() (any, error) {
		return l.load(context.WithoutCancel(ctx))
	})

	var res singleflight.Result
	select {
	case res = <-flight:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	snap := res.Val.(*store.Snapshot)
	return &store.Snapshot{Document: snap.Document.Clone(), SHA: snap.SHA, Exists: snap.Exists}, nil
}

// SearchMembers matches name case-insensitively as a substring of member names.
func (l *Ledger) SearchMembers(ctx context.Context, name string) ([]models.MemberContribution, error) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil, &errs.ValidationError{
			ErrorMessage: errs.ErrorMessage{Message: "Name query parameter is required"},
			Field:        "name",
		}
	}
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	matches := []models.MemberContribution{}
	for _, m := range snap.Document.MemberContributions {
		if strings.Contains(strings.ToLower(m.MemberName), query) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (l *Ledger) Summary(ctx context.Context) (*Summary, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(snap.Document), nil
}

func (l *Ledger) Files(ctx context.Context) ([]store.FileInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	files, err := l.store.List(ctx)
	if err != nil {
		return nil, errs.NewStorageError("Failed to list files", "list", err)
	}
	return files, nil
}

// ---------------- WRITE ----------------

// AddContribution validates and merges one member contribution for month.
func (l *Ledger) AddContribution(ctx context.Context, month string, in *models.ContributionInput) (*models.MemberContribution, error) {
	if err := models.CheckMonth(month); err != nil {
		return nil, err
	}
	if err := in.Validate(month); err != nil {
		return nil, err
	}

	today := l.now().Format("2006-01-02")
	var member models.MemberContribution
	sha, err := l.mutate(ctx, func(doc *models.Document) {
		member = MergeContribution(doc, month, in, today)
	})
	if err != nil {
		return nil, err
	}

	l.emit(ctx, notify.Event{
		Action:     notify.ActionContribution,
		Month:      month,
		MemberName: member.MemberName,
		Amount:     member.Contributions[month],
		SHA:        sha,
	})
	return &member, nil
}

// UpdateBalanceSheet validates report and replaces the stored report for month.
func (l *Ledger) UpdateBalanceSheet(ctx context.Context, month string, report *models.MonthlyReport) error {
	if err := models.CheckMonth(month); err != nil {
		return err
	}
	if err := report.Validate(); err != nil {
		return err
	}

	sha, err := l.mutate(ctx, func(doc *models.Document) {
		UpsertMonthlyReport(doc, month, *report)
	})
	if err != nil {
		return err
	}

	l.emit(ctx, notify.Event{Action: notify.ActionBalanceSheet, Month: month, SHA: sha})
	return nil
}

func (l *Ledger) mutate(ctx context.Context, apply func(doc *models.Document)) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := logger.FromContext(ctx)
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		snap, err := l.load(ctx)
		if err != nil {
			return "", err
		}
		if !snap.Exists {
			log.Info("no stored document, starting from empty defaults", "backend", l.store.Name())
		}

		doc := snap.Document.Clone()
		apply(doc)

		sha, err := l.save(ctx, doc, snap.SHA)
		if errors.Is(err, store.ErrConflict) {
			log.Warn("document changed during write, retrying", "attempt", attempt, "sha", snap.SHA)
			continue
		}
		if err != nil {
			return "", errs.NewStorageError("Failed to update data", "save", err)
		}
		// reads already in flight may hold the previous document
		l.reads.Forget(snapshotKey)
		return sha, nil
	}
	return "", errs.NewConflictError("Data changed while saving, please retry")
}

func (l *Ledger) load(ctx context.Context) (*store.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	snap, err := l.store.Load(ctx)
	if err != nil {
		return nil, errs.NewStorageError("Failed to read data", "load", err)
	}
	return snap, nil
}

func (l *Ledger) save(ctx context.Context, doc *models.Document, sha string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.store.Save(ctx, doc, sha)
}

// emit hands the event to the notifier in the background. At most
// maxPendingNotifications are in flight; further events are dropped.
func (l *Ledger) emit(ctx context.Context, e notify.Event) {
	e.Backend = l.store.Name()
	e.Timestamp = l.now().UTC()
	log := logger.FromContext(ctx)

	select {
	case l.notifySlots <- struct{}{}:
	default:
		log.Warn("notification queue full, dropping event", "action", e.Action, "month", e.Month)
		return
	}

	l.pending.Add(1)
	go func() {
		defer func() {
			<-l.notifySlots
			l.pending.Done()
		}()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := l.notifier.Notify(nctx, e); err != nil {
			log.Warn("notification failed", "action", e.Action, "month", e.Month, "error", err)
		}
	}()
}

// Wait blocks until every pending notification has been delivered or has failed.
func (l *Ledger) Wait() {
	l.pending.Wait()
}

