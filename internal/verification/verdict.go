package verification

import (
	"time"

	"verigate/internal/ledger"
)

// Request is one verification attempt as submitted by the web front-end.
type Request struct {
	SubjectID        string
	Username         string
	Email            string
	NetworkAddress   string
	CountryCode      string
	Anonymized       bool
	AccountCreatedAt time.Time
}

type Outcome int

const (
	Accepted Outcome = iota
	RejectedAnonymized
	RejectedTooNew
	RejectedDuplicateBan
	RejectedDuplicateDeny
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedAnonymized:
		return "rejected_anonymized"
	case RejectedTooNew:
		return "rejected_too_new"
	case RejectedDuplicateBan:
		return "rejected_duplicate_ban"
	case RejectedDuplicateDeny:
		return "rejected_duplicate_deny"
	default:
		return "unknown"
	}
}

// ReasonCode is the wire reason of a rejected outcome. Accepted has none.
func (o Outcome) ReasonCode() string {
	switch o {
	case RejectedAnonymized:
		return "vpn_or_proxy"
	case RejectedTooNew:
		return "account_age"
	case RejectedDuplicateBan:
		return "duplicate_account"
	case RejectedDuplicateDeny:
		return "duplicate_ip"
	default:
		return ""
	}
}

// Verdict is the terminal decision for one attempt.
type Verdict struct {
	ID             string
	Outcome        Outcome
	Reason         string
	Request        Request
	AccountAgeDays int
	Conflict       *ledger.Entry
	DecidedAt      time.Time
}

func (v Verdict) Accepted() bool {
	return v.Outcome == Accepted
}
