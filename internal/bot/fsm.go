package bot

import (
	"errors"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
)

// ErrInvalidTransition is returned when an event is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Event drives the bulk-send conversation.
type Event string

const (
	EventStartBulk       Event = "start_bulk"
	EventNumbersAccepted Event = "numbers_accepted"
	EventNumbersRejected Event = "numbers_rejected"
	EventConfirm         Event = "confirm"
	EventCancel          Event = "cancel"
)

type transition struct {
	from  model.State
	event Event
}

var transitions = map[transition]model.State{
	{model.StateIdle, EventStartBulk}:                  model.StateAwaitingNumbers,
	{model.StateAwaitingNumbers, EventStartBulk}:       model.StateAwaitingNumbers,
	{model.StateAwaitingNumbers, EventNumbersRejected}: model.StateAwaitingNumbers,
	{model.StateAwaitingNumbers, EventNumbersAccepted}: model.StateAwaitingConfirmation,
	{model.StateAwaitingNumbers, EventCancel}:          model.StateIdle,
	{model.StateAwaitingConfirmation, EventConfirm}:    model.StateIdle,
	{model.StateAwaitingConfirmation, EventCancel}:     model.StateIdle,
	{model.StateAwaitingConfirmation, EventStartBulk}:  model.StateAwaitingNumbers,
}

// Next looks up the state reached from `from` on ev.
func Next(from model.State, ev Event) (model.State, error) {
	to, ok := transitions[transition{from, ev}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, ev)
	}
	return to, nil
}

// Fire applies ev to the session. Entering Idle or AwaitingNumbers drops collected numbers.
func Fire(s *model.Session, ev Event) error {
	to, err := Next(s.State, ev)
	if err != nil {
		return err
	}
	if to != model.StateAwaitingConfirmation {
		s.Numbers = nil
	}
	s.State = to
	return nil
}
