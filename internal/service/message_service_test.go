package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/ilindan-dev/sms-sender-bot/internal/providers"
	"github.com/ilindan-dev/sms-sender-bot/internal/storage/memory"
	"github.com/rs/zerolog"
)

type failingRepo struct{ *memory.RecordRepository }

func (failingRepo) Save(context.Context, *model.SendRecord) error { return errors.New("db down") }

type capturingNotifier struct {
	mu      sync.Mutex
	reports []*model.BulkReport
	err     error
	done    chan struct{}
}

func (n *capturingNotifier) Notify(_ context.Context, r *model.BulkReport) error {
	n.mu.Lock()
	n.reports = append(n.reports, r)
	n.mu.Unlock()
	if n.done != nil {
		close(n.done)
	}
	return n.err
}

type countingNotifier struct {
	count atomic.Int32
}

func (n *countingNotifier) Notify(context.Context, *model.BulkReport) error {
	n.count.Add(1)
	return nil
}

type capturingQueue struct {
	jobs []*model.BulkJob
	err  error
}

func (q *capturingQueue) Publish(_ context.Context, job *model.BulkJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newMessageService(t *testing.T, script ...providers.Result) (*MessageService, *memory.RecordRepository, *harness) {
	t.Helper()
	logger := zerolog.Nop()
	h := newHarness(t, script...)
	records := memory.NewRecordRepository()
	return NewMessageService(h.dispatcher, records, &logger), records, h
}

func TestSendOneRecordsHistory(t *testing.T) {
	svc, _, _ := newMessageService(t, providers.Accepted("SM1"))
	ctx := context.Background()

	res, id := svc.SendOne(ctx, 42, "+15551234567", "hi")
	if !res.Success || id == uuid.Nil {
		t.Fatalf("SendOne = %+v, %s", res, id)
	}

	rec, err := svc.GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.ChatID != 42 || rec.Destination != "+15551234567" || !rec.Success || rec.Attempts != 1 || rec.JobID != nil {
		t.Fatalf("record = %+v", rec)
	}
}

func TestSendOneHistoryFailureKeepsResult(t *testing.T) {
	logger := zerolog.Nop()
	h := newHarness(t, providers.Accepted("SM1"))
	svc := NewMessageService(h.dispatcher, failingRepo{memory.NewRecordRepository()}, &logger)

	res, id := svc.SendOne(context.Background(), 1, "+15551234567", "hi")
	if !res.Success || id != uuid.Nil {
		t.Fatalf("SendOne = %+v, %s", res, id)
	}
}

func TestSendBulkKeepsOrder(t *testing.T) {
	svc, _, h := newMessageService(t, providers.Accepted("SM1"))
	ctx := context.Background()
	job := model.NewBulkJob(7, []string{"+15551234567", "12345", "+447911123456"}, "promo")

	report := svc.SendBulk(ctx, job)

	if len(report.Items) != 3 || report.Succeeded() != 2 {
		t.Fatalf("report = %+v", report)
	}
	for i, want := range job.Numbers {
		if report.Items[i].Destination != want {
			t.Fatalf("item %d = %s, want %s", i, report.Items[i].Destination, want)
		}
	}
	if report.Items[1].Result.Kind != model.KindInput {
		t.Fatalf("invalid number result = %+v", report.Items[1].Result)
	}
	if h.provider.callCount() != 2 {
		t.Fatalf("provider calls = %d, want 2", h.provider.callCount())
	}

	recs, err := svc.ListJob(ctx, job.ID)
	if err != nil || len(recs) != 3 {
		t.Fatalf("ListJob = %d records, %v", len(recs), err)
	}
}

func TestSendBulkStopsWhenCancelled(t *testing.T) {
	svc, _, h := newMessageService(t, providers.Accepted("SM1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := svc.SendBulk(ctx, model.NewBulkJob(7, []string{"+15551234567", "+447911123456"}, "promo"))
	if len(report.Items) != 0 || h.provider.callCount() != 0 {
		t.Fatalf("items = %d, provider calls = %d, want 0/0", len(report.Items), h.provider.callCount())
	}
}

func TestBulkProcessorNotifies(t *testing.T) {
	logger := zerolog.Nop()
	svc, _, _ := newMessageService(t, providers.Accepted("SM1"))
	boom := errors.New("chat unreachable")
	n := &capturingNotifier{err: boom}
	p := NewBulkProcessor(svc, n, &logger)

	err := p.Process(context.Background(), model.NewBulkJob(7, []string{"+15551234567"}, "promo"))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(n.reports) != 1 || n.reports[0].ChatID != 7 || len(n.reports[0].Items) != 1 {
		t.Fatalf("reports = %+v", n.reports)
	}
}

func TestInlineRunner(t *testing.T) {
	logger := zerolog.Nop()
	svc, _, _ := newMessageService(t, providers.Accepted("SM1"))
	n := &capturingNotifier{done: make(chan struct{})}
	r := NewInlineRunner(NewBulkProcessor(svc, n, &logger), &logger)

	if err := r.Submit(context.Background(), model.NewBulkJob(7, []string{"+15551234567"}, "promo")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not complete")
	}
	r.Stop()

	if err := r.Submit(context.Background(), model.NewBulkJob(7, []string{"+15551234567"}, "promo")); err == nil {
		t.Fatal("a stopped runner must refuse jobs")
	}
}

func TestInlineRunnerStopWaitsForAcceptedJobs(t *testing.T) {
	logger := zerolog.Nop()
	svc, _, _ := newMessageService(t, providers.Accepted("SM1"))
	n := &countingNotifier{}
	r := NewInlineRunner(NewBulkProcessor(svc, n, &logger), &logger)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := model.NewBulkJob(7, []string{"+15551234567"}, "promo")
			if err := r.Submit(context.Background(), job); err == nil {
				accepted.Add(1)
			}
		}()
	}
	r.Stop()
	finished := n.count.Load()
	wg.Wait()

	if finished != accepted.Load() {
		t.Fatalf("%d jobs finished by Stop, %d were accepted", finished, accepted.Load())
	}
}

func TestQueueRunner(t *testing.T) {
	logger := zerolog.Nop()
	q := &capturingQueue{}
	r := NewQueueRunner(q, &logger)
	job := model.NewBulkJob(7, []string{"+15551234567"}, "promo")

	if err := r.Submit(context.Background(), job); err != nil || len(q.jobs) != 1 || q.jobs[0] != job {
		t.Fatalf("Submit = %v, jobs = %v", err, q.jobs)
	}

	q.err = errors.New("broker down")
	if err := r.Submit(context.Background(), job); !errors.Is(err, q.err) {
		t.Fatalf("err = %v", err)
	}
}
