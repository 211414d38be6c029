package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/phillip/chama-tracker-go/errs"
	models "github.com/phillip/chama-tracker-go/models"
	notify "github.com/phillip/chama-tracker-go/notify"
	store "github.com/phillip/chama-tracker-go/store"
)

var fixedNow = func() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

// racingStore lets another writer sneak in before the first n saves.
type racingStore struct {
	*store.Memory
	races int
}

func (s *racingStore) Save(ctx context.Context, doc *models.Document, sha string) (string, error) {
	if s.races > 0 {
		s.races--
		snap, _ := s.Memory.Load(ctx)
		other := snap.Document.Clone()
		amount := float64(50 + s.races)
		MergeContribution(other, "2024-01", contribution("Concurrent Writer", "2024-01", amount), "2024-01-01")
		if _, err := s.Memory.Save(ctx, other, snap.SHA); err != nil {
			return "", err
		}
	}
	return s.Memory.Save(ctx, doc, sha)
}

type brokenStore struct {
	store.Memory
	loadErr, saveErr error
}

func (s *brokenStore) Load(ctx context.Context) (*store.Snapshot, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Memory.Load(ctx)
}

func (s *brokenStore) Save(ctx context.Context, doc *models.Document, sha string) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	return s.Memory.Save(ctx, doc, sha)
}

func TestAddContributionRoundTrip(t *testing.T) {
	n := &recordingNotifier{}
	l := NewLedger(store.NewMemory(), WithNotifier(n), WithClock(fixedNow))
	ctx := context.Background()

	m, err := l.AddContribution(ctx, "2024-01", contribution("Enoch Kamau Thumbi", "2024-01", 1000))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, m.Amount)
	assert.Equal(t, "2024-02-10", m.LastContributionDate)
	l.Wait()

	m, err = l.AddContribution(ctx, "2024-02", contribution("Enoch Kamau Thumbi", "2024-02", 500))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, m.Amount)

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Document.MemberContributions, 1)
	assert.Equal(t, 1500.0, snap.Document.MemberContributions[0].Amount)

	l.Wait()
	require.Len(t, n.events, 2)
	assert.Equal(t, notify.ActionContribution, n.events[1].Action)
	assert.Equal(t, 500.0, n.events[1].Amount)
	assert.Equal(t, "memory", n.events[1].Backend)
	assert.Equal(t, snap.SHA, n.events[1].SHA)
}

func TestAddContributionValidation(t *testing.T) {
	mem := store.NewMemory()
	l := NewLedger(mem)
	ctx := context.Background()

	_, err := l.AddContribution(ctx, "2024-1", contribution("Enoch", "2024-1", 1000))
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "month", ve.Field)

	_, err = l.AddContribution(ctx, "2024-01", contribution("Enoch", "2024-02", 1000))
	assert.EqualError(t, err, "Contribution for 2024-01 is required")

	files, _ := mem.List(ctx)
	assert.Empty(t, files, "nothing written on validation failure")
}

func TestUpdateBalanceSheet(t *testing.T) {
	n := &recordingNotifier{err: errors.New("smtp down")}
	l := NewLedger(store.NewMemory(), WithNotifier(n))
	ctx := context.Background()

	report := &models.MonthlyReport{
		OpeningKCBBalance:             ptr(100),
		TotalMemberContributionsKCB:   ptr(100),
		TotalLoanRepaymentsKCB:        ptr(100),
		TotalLoanDisbursementsKCB:     ptr(100),
		BankChargesKCB:                ptr(100),
		OpeningLoftyBalance:           ptr(100),
		TotalMemberContributionsLofty: ptr(100),
		TotalLoanDisbursementsLofty:   ptr(100),
		BankChargesLofty:              ptr(100),
	}
	require.NoError(t, l.UpdateBalanceSheet(ctx, "2024-01", report), "notifier failure is not a request failure")

	report.BankChargesLofty = nil
	err := l.UpdateBalanceSheet(ctx, "2024-01", report)
	assert.EqualError(t, err, "Valid bank_charges_lofty is required")

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *snap.Document.MonthlyReports["2024-01"].BankChargesLofty)
	l.Wait()
	assert.Len(t, n.events, 1)
}

func TestConflictIsRetried(t *testing.T) {
	s := &racingStore{Memory: store.NewMemory(), races: 1}
	l := NewLedger(s)

	_, err := l.AddContribution(context.Background(), "2024-01", contribution("Enoch", "2024-01", 1000))
	require.NoError(t, err)

	snap, err := l.Snapshot(context.Background())
	require.NoError(t, err)
	names := []string{}
	for _, m := range snap.Document.MemberContributions {
		names = append(names, m.MemberName)
	}
	assert.ElementsMatch(t, []string{"Concurrent Writer", "Enoch"}, names, "neither write is lost")
}

func TestConflictGivesUp(t *testing.T) {
	s := &racingStore{Memory: store.NewMemory(), races: maxSaveAttempts}
	l := NewLedger(s)

	_, err := l.AddContribution(context.Background(), "2024-01", contribution("Enoch", "2024-01", 1000))
	var ce *errs.ConflictError
	assert.True(t, errors.As(err, &ce))
}

func TestStorageErrors(t *testing.T) {
	ctx := context.Background()

	l := NewLedger(&brokenStore{loadErr: errors.New("EACCES")})
	_, err := l.Snapshot(ctx)
	var se *errs.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Failed to read data", se.Message)

	l = NewLedger(&brokenStore{saveErr: errors.New("ENOSPC")})
	_, err = l.AddContribution(ctx, "2024-01", contribution("Enoch", "2024-01", 1000))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Failed to update data", se.Message)
	assert.ErrorContains(t, err, "ENOSPC")
}

func TestSearchMembers(t *testing.T) {
	l := NewLedger(store.NewMemory())
	ctx := context.Background()
	for _, name := range []string{"Enoch Kamau Thumbi", "John Waweru Njeri", "Geoffrey Mugi Gicini"} {
		_, err := l.AddContribution(ctx, "2024-01", contribution(name, "2024-01", 1000))
		require.NoError(t, err)
	}

	got, err := l.SearchMembers(ctx, "enoch")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Enoch Kamau Thumbi", got[0].MemberName)

	got, err = l.SearchMembers(ctx, "  NJ ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "John Waweru Njeri", got[0].MemberName)

	got, err = l.SearchMembers(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	_, err = l.SearchMembers(ctx, " ")
	assert.EqualError(t, err, "Name query parameter is required")
}

func TestSnapshotIsACopy(t *testing.T) {
	l := NewLedger(store.NewMemory())
	ctx := context.Background()
	_, err := l.AddContribution(ctx, "2024-01", contribution("Enoch", "2024-01", 1000))
	require.NoError(t, err)

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	snap.Document.MemberContributions[0].Contributions["2024-01"] = 1

	again, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, again.Document.MemberContributions[0].Contributions["2024-01"])
}

func TestConcurrentWritersAllLand(t *testing.T) {
	l := NewLedger(store.NewMemory())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 12; i++ {
		wg.Add(1)
		go func(month int) {
			defer wg.Done()
			key := time.Date(2024, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
			_, err := l.AddContribution(ctx, key, contribution("Enoch", key, 100))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Document.MemberContributions, 1)
	assert.Equal(t, 1200.0, snap.Document.MemberContributions[0].Amount)
}

// gatedStore holds the next Load on a gate after reading, like a slow backend transfer.
type gatedStore struct {
	*store.Memory

	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Memory: store.NewMemory(), gate: make(chan struct{}), entered: make(chan struct{})}
}

func (s *gatedStore) Load(ctx context.Context) (*store.Snapshot, error) {
	snap, err := s.Memory.Load(ctx)

	s.mu.Lock()
	gate := s.gate
	s.gate = nil
	s.mu.Unlock()
	if gate == nil {
		return snap, err
	}

	close(s.entered)
	select {
	case <-gate:
		return snap, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSharedReadSurvivesCallerCancel(t *testing.T) {
	s := newGatedStore()
	gate := s.gate
	l := NewLedger(s)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := l.Snapshot(ctxA)
		errA <- err
	}()
	<-s.entered

	errB := make(chan error, 1)
	go func() {
		_, err := l.Snapshot(context.Background())
		errB <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(gate)
	assert.NoError(t, <-errB, "a joined reader must not inherit another caller's cancellation")
}

func TestReadAfterWriteSeesWrite(t *testing.T) {
	s := newGatedStore()
	gate := s.gate
	l := NewLedger(s)
	ctx := context.Background()

	staleDone := make(chan struct{})
	go func() {
		defer close(staleDone)
		_, _ = l.Snapshot(ctx)
	}()
	<-s.entered

	_, err := l.AddContribution(ctx, "2024-01", contribution("Enoch", "2024-01", 1000))
	require.NoError(t, err)

	type result struct {
		snap *store.Snapshot
		err  error
	}
	fresh := make(chan result, 1)
	go func() {
		snap, err := l.Snapshot(ctx)
		fresh <- result{snap, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)
	<-staleDone

	got := <-fresh
	require.NoError(t, got.err)
	assert.Len(t, got.snap.Document.MemberContributions, 1)
}

// blockingNotifier holds every delivery until release is closed.
type blockingNotifier struct {
	recordingNotifier
	release chan struct{}
}

func (b *blockingNotifier) Notify(ctx context.Context, e notify.Event) error {
	<-b.release
	return b.recordingNotifier.Notify(ctx, e)
}

func TestSlowNotifierDoesNotDelayWrites(t *testing.T) {
	n := &blockingNotifier{release: make(chan struct{})}
	l := NewLedger(store.NewMemory(), WithNotifier(n))

	reqCtx, cancel := context.WithCancel(context.Background())
	_, err := l.AddContribution(reqCtx, "2024-01", contribution("Enoch", "2024-01", 1000))
	require.NoError(t, err, "write returns while the notifier is still blocked")
	cancel()

	close(n.release)
	l.Wait()
	require.Len(t, n.events, 1)
	assert.Equal(t, "Enoch", n.events[0].MemberName)
}

func TestNotificationsBeyondQueueAreDropped(t *testing.T) {
	n := &blockingNotifier{release: make(chan struct{})}
	l := NewLedger(store.NewMemory(), WithNotifier(n))
	ctx := context.Background()

	for i := 0; i < maxPendingNotifications+3; i++ {
		_, err := l.AddContribution(ctx, "2024-01", contribution("Enoch", "2024-01", float64(100+i)))
		require.NoError(t, err)
	}

	close(n.release)
	l.Wait()
	assert.Len(t, n.events, maxPendingNotifications)
}
