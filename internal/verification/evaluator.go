package verification

import (
	"context"
	"fmt"
	"math"
	"time"

	"verigate/internal/config"
	"verigate/internal/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Policy struct {
	MinAccountAge   int
	ExemptCountries map[string]struct{}
	BanWindow       time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MinAccountAge:   3,
		ExemptCountries: map[string]struct{}{"JP": {}},
		BanWindow:       24 * time.Hour,
	}
}

func PolicyFromConfig(cfg config.PolicyConfig) Policy {
	policy := DefaultPolicy()
	if cfg.MinAccountAgeDays > 0 {
		policy.MinAccountAge = cfg.MinAccountAgeDays
	}
	if cfg.BanWindowHours > 0 {
		policy.BanWindow = time.Duration(cfg.BanWindowHours) * time.Hour
	}
	if len(cfg.ExemptCountries) > 0 {
		policy.ExemptCountries = make(map[string]struct{}, len(cfg.ExemptCountries))
		for _, code := range cfg.ExemptCountries {
			policy.ExemptCountries[code] = struct{}{}
		}
	}
	return policy
}

type Evaluator struct {
	ledger *ledger.Ledger
	policy Policy
	logger *zap.Logger
}

func NewEvaluator(l *ledger.Ledger, policy Policy, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{ledger: l, policy: policy, logger: logger}
}

// Evaluate decides one attempt. The conflict check and the ledger append on
// acceptance run under the address lock. Journal failures are logged and
// never change the verdict.
func (e *Evaluator) Evaluate(ctx context.Context, req Request, now time.Time) Verdict {
	verdict := Verdict{
		ID:             uuid.NewString(),
		Request:        req,
		AccountAgeDays: AccountAgeDays(req.AccountCreatedAt, now),
		DecidedAt:      now,
	}

	if req.Anonymized {
		verdict.Outcome = RejectedAnonymized
		verdict.Reason = "connection flagged as vpn, proxy or tor"
		return verdict
	}

	if _, exempt := e.policy.ExemptCountries[req.CountryCode]; !exempt && verdict.AccountAgeDays < e.policy.MinAccountAge {
		verdict.Outcome = RejectedTooNew
		verdict.Reason = fmt.Sprintf("account is %d days old, minimum is %d", verdict.AccountAgeDays, e.policy.MinAccountAge)
		return verdict
	}

	err := e.ledger.Update(ctx, req.NetworkAddress, func(tx *ledger.Tx) {
		conflict, found := tx.FindConflict(req.SubjectID, now)
		if !found {
			tx.Record(req.SubjectID, now)
			verdict.Outcome = Accepted
			verdict.Reason = "all checks passed"
			return
		}

		verdict.Conflict = &conflict
		age := now.Sub(conflict.At)
		if age < e.policy.BanWindow {
			verdict.Outcome = RejectedDuplicateBan
			verdict.Reason = fmt.Sprintf("address used by %s %s ago", conflict.SubjectID, age.Truncate(time.Minute))
			return
		}
		verdict.Outcome = RejectedDuplicateDeny
		verdict.Reason = fmt.Sprintf("address used by %s %s ago", conflict.SubjectID, age.Truncate(time.Minute))
	})
	if err != nil {
		e.logger.Warn("ledger journal write failed", zap.String("verdict_id", verdict.ID), zap.Error(err))
	}
	return verdict
}

// AccountAgeDays floors the account age to whole days.
func AccountAgeDays(createdAt, now time.Time) int {
	return int(math.Floor(now.Sub(createdAt).Hours() / 24))
}
