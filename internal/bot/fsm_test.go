package bot

import (
	"errors"
	"testing"

	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
)

func TestNext(t *testing.T) {
	states := []model.State{model.StateIdle, model.StateAwaitingNumbers, model.StateAwaitingConfirmation}
	events := []Event{EventStartBulk, EventNumbersAccepted, EventNumbersRejected, EventConfirm, EventCancel}

	want := map[model.State]map[Event]model.State{
		model.StateIdle: {
			EventStartBulk: model.StateAwaitingNumbers,
		},
		model.StateAwaitingNumbers: {
			EventStartBulk:       model.StateAwaitingNumbers,
			EventNumbersRejected: model.StateAwaitingNumbers,
			EventNumbersAccepted: model.StateAwaitingConfirmation,
			EventCancel:          model.StateIdle,
		},
		model.StateAwaitingConfirmation: {
			EventConfirm:   model.StateIdle,
			EventCancel:    model.StateIdle,
			EventStartBulk: model.StateAwaitingNumbers,
		},
	}

	for _, from := range states {
		for _, ev := range events {
			got, err := Next(from, ev)
			to, allowed := want[from][ev]
			if !allowed {
				if !errors.Is(err, ErrInvalidTransition) || got != from {
					t.Errorf("Next(%s, %s) = %s, %v; want ErrInvalidTransition", from, ev, got, err)
				}
				continue
			}
			if err != nil || got != to {
				t.Errorf("Next(%s, %s) = %s, %v; want %s", from, ev, got, err, to)
			}
		}
	}
}

func TestFireKeepsNumbersOnlyWhileConfirming(t *testing.T) {
	s := model.NewSession(1)
	if err := Fire(s, EventStartBulk); err != nil {
		t.Fatal(err)
	}
	if err := Fire(s, EventNumbersAccepted); err != nil {
		t.Fatal(err)
	}
	s.Numbers = []string{"+15551234567"}

	if err := Fire(s, EventStartBulk); err != nil {
		t.Fatal(err)
	}
	if s.State != model.StateAwaitingNumbers || s.Numbers != nil {
		t.Fatalf("session = %+v, want numbers dropped on restart", s)
	}

	if err := Fire(model.NewSession(2), EventConfirm); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirm from idle err = %v", err)
	}
}
