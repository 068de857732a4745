// Package status tracks a transaction until it settles: an explicit state
// machine, a poller that drives it, and the payment countdown.
package status

import (
	"errors"
	"fmt"

	"enstore_storefront/internal/models"
)

// State of a tracked transaction.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePolling State = "polling"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

// Terminal reports whether no more polling happens in this state.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed
}

// Event drives the machine.
type Event string

const (
	EventStart          Event = "start"
	EventTick           Event = "tick"
	EventManualCheck    Event = "manual-check"
	EventFetchResolved  Event = "fetch-resolved"
	EventFetchFailed    Event = "fetch-failed"
	EventExpired        Event = "expired"
	EventCancelResolved Event = "cancel-resolved"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// transitions lists, per state, the events accepted and the states each may
// lead to. fetch-resolved picks its target from the fetched transaction.
var transitions = map[State]map[Event][]State{
	StateIdle: {
		EventStart:   {StateLoading},
		EventExpired: {StateIdle},
	},
	StateLoading: {
		EventTick:           {StateLoading},
		EventManualCheck:    {StateLoading},
		EventFetchResolved:  {StatePolling, StateSuccess, StateFailed},
		EventFetchFailed:    {StateLoading},
		EventExpired:        {StateFailed},
		EventCancelResolved: {StateLoading},
	},
	StatePolling: {
		EventTick:           {StatePolling},
		EventManualCheck:    {StatePolling},
		EventFetchResolved:  {StatePolling, StateSuccess, StateFailed},
		EventFetchFailed:    {StatePolling},
		EventExpired:        {StateFailed},
		EventCancelResolved: {StatePolling},
	},
	StateSuccess: {
		EventManualCheck:   {StateSuccess},
		EventFetchResolved: {StateSuccess, StateFailed},
		EventFetchFailed:   {StateSuccess},
		EventExpired:       {StateSuccess},
	},
	StateFailed: {
		EventManualCheck:   {StateFailed},
		EventFetchResolved: {StateFailed, StateSuccess},
		EventFetchFailed:   {StateFailed},
		EventExpired:       {StateFailed},
	},
}

// Machine is the status state machine of one transaction. It is not safe for
// concurrent use; Poller serialises access.
type Machine struct {
	state   State
	tx      *models.Transaction
	expired bool
}

func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

func (m *Machine) State() State { return m.state }

// Transaction is the last fetched snapshot, nil before the first fetch.
func (m *Machine) Transaction() *models.Transaction { return m.tx }

// Expired reports whether the local countdown ran out.
func (m *Machine) Expired() bool { return m.expired }

// CanTransition checks whether ev is accepted in the current state.
func (m *Machine) CanTransition(ev Event) bool {
	_, ok := transitions[m.state][ev]
	return ok
}

// Fire applies ev. tx is required for fetch-resolved and ignored otherwise.
func (m *Machine) Fire(ev Event, tx *models.Transaction) (State, error) {
	allowed, ok := transitions[m.state][ev]
	if !ok {
		return m.state, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, m.state)
	}

	next := allowed[0]
	switch ev {
	case EventFetchResolved:
		if tx == nil {
			return m.state, fmt.Errorf("%w: %s without transaction", ErrInvalidTransition, ev)
		}
		next = Classify(*tx, m.expired)
	case EventExpired:
		m.expired = true
	}

	if !contains(allowed, next) {
		return m.state, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	if ev == EventFetchResolved {
		snapshot := *tx
		m.tx = &snapshot
	}
	m.state = next
	return next, nil
}

// Classify maps a fetched transaction to a machine state. Failed, expired and
// refunded win over a paid payment status. A transaction the server still
// reports as pending counts as failed once the local countdown has expired.
func Classify(tx models.Transaction, expired bool) State {
	switch {
	case tx.IsSuccess():
		return StateSuccess
	case tx.IsFailed(), expired:
		return StateFailed
	default:
		return StatePolling
	}
}

// Cancellable reports whether a transaction may still be cancelled: not paid,
// not settled and not past its local deadline.
func Cancellable(tx models.Transaction, expired bool) bool {
	if expired || tx.IsTerminal() {
		return false
	}
	return tx.PaymentStatus != models.PaymentStatusPaid
}

func contains(states []State, s State) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}
