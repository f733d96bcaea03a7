package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/rs/zerolog"
)

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(bool) error { a.acked = true; return nil }

func (a *fakeAck) Nack(_, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

type fakeProcessor struct {
	jobs []*model.BulkJob
	err  error
}

func (p *fakeProcessor) Process(_ context.Context, job *model.BulkJob) error {
	p.jobs = append(p.jobs, job)
	return p.err
}

func TestHandleMessage(t *testing.T) {
	valid, _ := json.Marshal(model.NewBulkJob(42, []string{"+15551234567"}, "hi"))
	empty, _ := json.Marshal(model.NewBulkJob(42, nil, "hi"))

	tests := []struct {
		name       string
		body       []byte
		processErr error
		wantAck    bool
		wantRuns   int
	}{
		{"valid job", valid, nil, true, 1},
		{"report failure still acks", valid, errors.New("telegram down"), true, 1},
		{"malformed json", []byte("{"), nil, false, 0},
		{"no numbers", empty, nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProcessor{err: tt.processErr}
			c := &Consumer{processor: p, logger: zerolog.Nop()}
			ack := &fakeAck{}

			c.handleMessage(context.Background(), tt.body, ack, zerolog.Nop())

			if ack.acked != tt.wantAck || ack.nacked == tt.wantAck {
				t.Fatalf("acked = %v, nacked = %v", ack.acked, ack.nacked)
			}
			if ack.requeued {
				t.Fatal("messages must never be requeued")
			}
			if len(p.jobs) != tt.wantRuns {
				t.Fatalf("processor runs = %d, want %d", len(p.jobs), tt.wantRuns)
			}
		})
	}
}
