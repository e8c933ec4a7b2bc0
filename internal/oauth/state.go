package oauth

import "context"

// State is a step of the authorization flow.
type State string

const (
	StateIdle             State = "idle"
	StateListenerStarted  State = "listener_started"
	StateAwaitingCallback State = "awaiting_callback"
	StateCodeReceived     State = "code_received"
	StateTimeout          State = "timeout"
	StateCancelled        State = "cancelled"
	StateStateMismatch    State = "state_mismatch"
	StateDenied           State = "denied"
	StateExchanging       State = "exchanging"
	StateSuccess          State = "success"
	StateExchangeFailed   State = "exchange_failed"
)

// Terminal reports whether s ends an attempt. The only transition after a
// terminal state is StateIdle, published once the callback listener is
// released.
func (s State) Terminal() bool {
	switch s {
	case StateTimeout, StateCancelled, StateStateMismatch, StateDenied, StateSuccess, StateExchangeFailed:
		return true
	}
	return false
}

// StateHook observes flow transitions.
type StateHook func(ctx context.Context, s State)
