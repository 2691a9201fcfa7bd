package booking

import (
	"strings"
	"time"
)

// Outcome is the combined result of the three approval slots for the
// current round.
type Outcome string

const (
	OutcomePending   Outcome = "Pending"   // at least one NoResponse, no denial
	OutcomeConfirmed Outcome = "Confirmed" // all three approved
	OutcomeDenied    Outcome = "Denied"    // any denial, final for this round
)

// DecisionResult is what a decide call produced. Applied is false when the
// call degraded to a no-op: the slot was already set, or the round was
// already denied. A no-op is a successful, informative result, never an
// error.
type DecisionResult struct {
	Outcome Outcome
	Applied bool
}

// Outcome computes the aggregate over the current round's slots. A single
// denial dominates; confirmation needs all three.
func (b *Booking) Outcome() Outcome {
	approved := 0
	for i := range b.Approvals {
		switch b.Approvals[i].Decision {
		case DecisionDenied:
			return OutcomeDenied
		case DecisionApproved:
			approved++
		}
	}
	if approved == len(b.Approvals) && approved > 0 {
		return OutcomeConfirmed
	}
	return OutcomePending
}

// RecordDecision writes one party's decision into its slot and returns the
// new aggregate. Decisions are monotone within a round:
//
//   - a slot already set to Approved or Denied is never overwritten; the
//     call is a no-op returning the existing aggregate
//   - once any party denied, every later decide call (including approves)
//     is a no-op returning OutcomeDenied; only a reopen starts a new round
//
// A denial must carry a comment.
func (b *Booking) RecordDecision(p Party, d Decision, comment string, now time.Time) (DecisionResult, error) {
	if d != DecisionApproved && d != DecisionDenied {
		return DecisionResult{}, invalid("decision", "must be Approved or Denied")
	}
	slot := b.ApprovalFor(p)
	if slot == nil {
		return DecisionResult{}, invalid("party", "unknown approver")
	}
	if cur := b.Outcome(); cur == OutcomeDenied {
		return DecisionResult{Outcome: cur}, nil
	}
	if slot.Decision != DecisionNoResponse {
		return DecisionResult{Outcome: b.Outcome()}, nil
	}
	if d == DecisionDenied && strings.TrimSpace(comment) == "" {
		return DecisionResult{}, invalid("comment", "a short reason is required to deny")
	}

	slot.Decision = d
	slot.Comment = strings.TrimSpace(comment)
	t := now
	slot.DecidedAt = &t

	return DecisionResult{Outcome: b.Outcome(), Applied: true}, nil
}

// Veto is the one exception to slot monotonicity: after the round fully
// confirmed, any party may still withdraw their approval and deny. The
// caller is responsible for the acknowledgement handshake; here the slot
// is simply overwritten. A veto on an already-denied round is a no-op.
func (b *Booking) Veto(p Party, comment string, now time.Time) (DecisionResult, error) {
	slot := b.ApprovalFor(p)
	if slot == nil {
		return DecisionResult{}, invalid("party", "unknown approver")
	}
	if cur := b.Outcome(); cur == OutcomeDenied {
		return DecisionResult{Outcome: cur}, nil
	}
	if strings.TrimSpace(comment) == "" {
		return DecisionResult{}, invalid("comment", "a short reason is required to deny")
	}

	slot.Decision = DecisionDenied
	slot.Comment = strings.TrimSpace(comment)
	t := now
	slot.DecidedAt = &t

	return DecisionResult{Outcome: OutcomeDenied, Applied: true}, nil
}

// SelfApprove fills the requester's own slot at submission time when the
// requester is one of the three approvers. Counted like any other
// approval.
func (b *Booking) SelfApprove(p Party, now time.Time) bool {
	slot := b.ApprovalFor(p)
	if slot == nil || slot.Decision != DecisionNoResponse {
		return false
	}
	slot.Decision = DecisionApproved
	t := now
	slot.DecidedAt = &t
	return true
}

// ResetApprovals clears all three slots back to NoResponse and starts a
// new approval round. Prior decisions survive only in the timeline.
func (b *Booking) ResetApprovals() {
	for i := range b.Approvals {
		b.Approvals[i].Decision = DecisionNoResponse
		b.Approvals[i].Comment = ""
		b.Approvals[i].DecidedAt = nil
	}
	b.Round++
}
