package verification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"verigate/internal/config"
	"verigate/internal/ledger"
)

var now = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func newEvaluator() (*Evaluator, *ledger.Ledger) {
	l := ledger.New(0, nil, nil)
	return NewEvaluator(l, DefaultPolicy(), nil), l
}

func request(subject, address, country string, anonymized bool, age time.Duration) Request {
	return Request{
		SubjectID:        subject,
		NetworkAddress:   address,
		CountryCode:      country,
		Anonymized:       anonymized,
		AccountCreatedAt: now.Add(-age),
	}
}

func TestAnonymizedAlwaysRejected(t *testing.T) {
	ctx := context.Background()
	for _, country := range []string{"JP", "US", "unknown"} {
		for _, age := range []time.Duration{0, 2 * 24 * time.Hour, 400 * 24 * time.Hour} {
			e, l := newEvaluator()
			_ = l.Record(ctx, "A", "other", now.Add(-time.Hour))

			verdict := e.Evaluate(ctx, request("u1", "A", country, true, age), now)
			if verdict.Outcome != RejectedAnonymized {
				t.Fatalf("country=%s age=%s: expected RejectedAnonymized, got %s", country, age, verdict.Outcome)
			}
			if verdict.Outcome.ReasonCode() != "vpn_or_proxy" {
				t.Fatalf("expected vpn_or_proxy reason, got %s", verdict.Outcome.ReasonCode())
			}
		}
	}
}

func TestNewAccountOutsideJapanRejected(t *testing.T) {
	e, _ := newEvaluator()
	ages := []time.Duration{0, 23 * time.Hour, 2*24*time.Hour + 23*time.Hour + 59*time.Minute}
	for _, age := range ages {
		verdict := e.Evaluate(context.Background(), request("u1", "A", "US", false, age), now)
		if verdict.Outcome != RejectedTooNew {
			t.Fatalf("age=%s: expected RejectedTooNew, got %s", age, verdict.Outcome)
		}
		if verdict.Outcome.ReasonCode() != "account_age" {
			t.Fatalf("expected account_age reason, got %s", verdict.Outcome.ReasonCode())
		}
	}
}

func TestAccountAgeTruncatesToWholeDays(t *testing.T) {
	e, _ := newEvaluator()
	verdict := e.Evaluate(context.Background(), request("u1", "A", "US", false, 3*24*time.Hour), now)
	if verdict.Outcome != Accepted {
		t.Fatalf("expected exactly 3 days to pass, got %s", verdict.Outcome)
	}
	if verdict.AccountAgeDays != 3 {
		t.Fatalf("expected 3 days, got %d", verdict.AccountAgeDays)
	}
	if got := AccountAgeDays(now.Add(-(3*24*time.Hour - time.Second)), now); got != 2 {
		t.Fatalf("expected 2 days, got %d", got)
	}
}

func TestJapanSkipsAgeCheck(t *testing.T) {
	e, l := newEvaluator()
	verdict := e.Evaluate(context.Background(), request("u1", "A", "JP", false, 0), now)
	if verdict.Outcome != Accepted {
		t.Fatalf("expected Accepted, got %s", verdict.Outcome)
	}
	if l.Len("A") != 1 {
		t.Fatalf("expected acceptance to be recorded, got %d entries", l.Len("A"))
	}
}

func TestDuplicateWithinDayBans(t *testing.T) {
	ctx := context.Background()
	e, l := newEvaluator()
	_ = l.Record(ctx, "A", "U1", now.Add(-12*time.Hour))

	verdict := e.Evaluate(ctx, request("U2", "A", "JP", false, 365*24*time.Hour), now)
	if verdict.Outcome != RejectedDuplicateBan {
		t.Fatalf("expected RejectedDuplicateBan, got %s", verdict.Outcome)
	}
	if verdict.Outcome.ReasonCode() != "duplicate_account" {
		t.Fatalf("expected duplicate_account reason, got %s", verdict.Outcome.ReasonCode())
	}
	if verdict.Conflict == nil || verdict.Conflict.SubjectID != "U1" {
		t.Fatalf("expected conflict with U1, got %+v", verdict.Conflict)
	}
}

func TestDuplicateWithinWeekDenies(t *testing.T) {
	ctx := context.Background()
	for _, age := range []time.Duration{24 * time.Hour, 3 * 24 * time.Hour, 7*24*time.Hour - time.Second} {
		e, l := newEvaluator()
		_ = l.Record(ctx, "A", "U1", now.Add(-age))

		verdict := e.Evaluate(ctx, request("U2", "A", "JP", false, 365*24*time.Hour), now)
		if verdict.Outcome != RejectedDuplicateDeny {
			t.Fatalf("conflict age %s: expected RejectedDuplicateDeny, got %s", age, verdict.Outcome)
		}
		if verdict.Outcome.ReasonCode() != "duplicate_ip" {
			t.Fatalf("expected duplicate_ip reason, got %s", verdict.Outcome.ReasonCode())
		}
	}
}

func TestExpiredConflictAccepted(t *testing.T) {
	ctx := context.Background()
	e, l := newEvaluator()
	_ = l.Record(ctx, "A", "U1", now.Add(-8*24*time.Hour))

	verdict := e.Evaluate(ctx, request("U2", "A", "JP", false, 365*24*time.Hour), now)
	if verdict.Outcome != Accepted {
		t.Fatalf("expected Accepted, got %s", verdict.Outcome)
	}
	if l.Len("A") != 1 {
		t.Fatalf("expected only the new entry, got %d", l.Len("A"))
	}
}

func TestSameSubjectReverifies(t *testing.T) {
	ctx := context.Background()
	e, l := newEvaluator()
	_ = l.Record(ctx, "A", "U1", now.Add(-time.Hour))

	verdict := e.Evaluate(ctx, request("U1", "A", "US", false, 30*24*time.Hour), now)
	if verdict.Outcome != Accepted {
		t.Fatalf("expected Accepted, got %s", verdict.Outcome)
	}
}

func TestRejectionsNeverGrowLedger(t *testing.T) {
	ctx := context.Background()
	e, l := newEvaluator()
	_ = l.Record(ctx, "A", "U1", now.Add(-2*time.Hour))
	before := l.Len("A")

	attempts := []Request{
		request("U2", "A", "US", true, 100*24*time.Hour),
		request("U2", "A", "US", false, time.Hour),
		request("U2", "A", "JP", false, 100*24*time.Hour),
		request("U2", "A", "JP", false, 100*24*time.Hour),
	}
	for i, req := range attempts {
		if verdict := e.Evaluate(ctx, req, now); verdict.Accepted() {
			t.Fatalf("attempt %d: expected rejection", i)
		}
	}
	if after := l.Len("A"); after != before {
		t.Fatalf("expected ledger size %d, got %d", before, after)
	}
}

func TestConcurrentSameAddressAcceptsOnce(t *testing.T) {
	ctx := context.Background()
	e, l := newEvaluator()

	results := make(chan Verdict, 20)
	for i := 0; i < 20; i++ {
		go func(id int) {
			results <- e.Evaluate(ctx, request(fmt.Sprintf("u%d", id), "A", "JP", false, 0), now)
		}(i)
	}

	accepted := 0
	for i := 0; i < 20; i++ {
		verdict := <-results
		if verdict.Accepted() {
			accepted++
		} else if verdict.Outcome != RejectedDuplicateBan {
			t.Fatalf("expected ban for late arrivals, got %s", verdict.Outcome)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one acceptance, got %d", accepted)
	}
	if l.Len("A") != 1 {
		t.Fatalf("expected one ledger entry, got %d", l.Len("A"))
	}
}

func TestPolicyFromConfig(t *testing.T) {
	policy := PolicyFromConfig(config.PolicyConfig{MinAccountAgeDays: 5, ExemptCountries: []string{"KR"}, BanWindowHours: 48})
	if policy.MinAccountAge != 5 || policy.BanWindow != 48*time.Hour {
		t.Fatalf("unexpected policy: %+v", policy)
	}
	if _, ok := policy.ExemptCountries["JP"]; ok {
		t.Fatalf("expected JP to be replaced")
	}
	if _, ok := policy.ExemptCountries["KR"]; !ok {
		t.Fatalf("expected KR exempt")
	}
}
