/*
status.go - Batch lifecycle status

STATES:
  active     copies are on the shelf (the only "stocked" state)
  sold-out   every copy sold
  picked-up  publisher collected the remaining copies
  unknown    no reliable information

  The last three are "archived" for display.

TRANSITIONS:
  The status records current belief about a placement, not a workflow.
  Consignment relationships are informal and the publisher is the only
  source of truth, so by default any state may move to any other state,
  including back to active.

  StrictTransitions is available for deployments that want reactivation
  to go through a new batch instead. It is off unless configured.
*/
package ledger

import "fmt"

type Status string

const (
	StatusActive   Status = "active"
	StatusSoldOut  Status = "sold-out"
	StatusPickedUp Status = "picked-up"
	StatusUnknown  Status = "unknown"
)

// AllStatuses lists every valid status in display order.
var AllStatuses = []Status{StatusActive, StatusSoldOut, StatusPickedUp, StatusUnknown}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSoldOut, StatusPickedUp, StatusUnknown:
		return true
	}
	return false
}

func (s Status) IsActive() bool   { return s == StatusActive }
func (s Status) IsArchived() bool { return s.Valid() && s != StatusActive }

// ParseStatus maps an empty string to active, the creation default.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusActive, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// =============================================================================
// TRANSITION POLICIES
// =============================================================================

// TransitionPolicy decides whether a batch may move from one status to another.
// A non-nil error is reported to the caller as a validation failure on "status".
type TransitionPolicy interface {
	Allow(from, to Status) error
}

// UnconstrainedTransitions allows every move between valid states.
type UnconstrainedTransitions struct{}

func (UnconstrainedTransitions) Allow(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("unknown status %q", to)
	}
	return nil
}

// StrictTransitions forbids reactivating a sold-out or picked-up batch.
type StrictTransitions struct{}

func (StrictTransitions) Allow(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("unknown status %q", to)
	}
	if to == StatusActive && (from == StatusSoldOut || from == StatusPickedUp) {
		return fmt.Errorf("cannot move a %s batch back to active; record a new batch", from)
	}
	return nil
}

// TransitionPolicyFor returns the strict policy when strict is set.
func TransitionPolicyFor(strict bool) TransitionPolicy {
	if strict {
		return StrictTransitions{}
	}
	return UnconstrainedTransitions{}
}
