package notifier

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"verigate/internal/config"
	"verigate/internal/modules/audit"
	"verigate/internal/storage"
	"verigate/internal/verification"

	"github.com/bwmarrin/discordgo"
)

type fakePlatform struct {
	mu        sync.Mutex
	calls     []string
	dms       []*discordgo.MessageEmbed
	logs      []*discordgo.MessageEmbed
	hasRole   bool
	dmErr     error
	banReason string
}

func (f *fakePlatform) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakePlatform) SendDM(userID string, embed *discordgo.MessageEmbed) error {
	f.record("dm")
	f.dms = append(f.dms, embed)
	return f.dmErr
}

func (f *fakePlatform) Ban(guildID, userID, reason string) error {
	f.record("ban")
	f.banReason = reason
	return nil
}

func (f *fakePlatform) GrantRoleByName(guildID, userID, roleName, reason string) (bool, error) {
	f.record("grant_role")
	return f.hasRole, nil
}

func (f *fakePlatform) SendChannelEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	f.record("audit_log:" + channelID)
	f.logs = append(f.logs, embed)
	return nil
}

type fakeSettings struct{ channel string }

func (f fakeSettings) GetGuildSettings(ctx context.Context, guildID string, defaults storage.GuildSettings) (storage.GuildSettings, error) {
	defaults.GuildID = guildID
	defaults.VerificationLogChannel = f.channel
	return defaults, nil
}

type fakeRecorder struct {
	actions map[string]int
	failed  map[string]int
	dropped int
}

func newRecorder() *fakeRecorder {
	return &fakeRecorder{actions: map[string]int{}, failed: map[string]int{}}
}

func (f *fakeRecorder) RecordAction(action string, err error) {
	f.actions[action]++
	if err != nil {
		f.failed[action]++
	}
}

func (f *fakeRecorder) RecordDropped() { f.dropped++ }

type auditSink struct{ entries []storage.AuditLog }

func (a *auditSink) AddAuditLog(ctx context.Context, log storage.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func verdict(outcome verification.Outcome) verification.Verdict {
	return verification.Verdict{
		ID:      "v1",
		Outcome: outcome,
		Request: verification.Request{
			SubjectID:        "42",
			Username:         "alice",
			NetworkAddress:   "203.0.113.9",
			CountryCode:      "JP",
			AccountCreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		DecidedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlan(t *testing.T) {
	cases := []struct {
		outcome verification.Outcome
		channel string
		want    []Action
	}{
		{verification.Accepted, "", []Action{ActionDM, ActionGrantRole}},
		{verification.Accepted, "c1", []Action{ActionDM, ActionGrantRole, ActionAuditLog}},
		{verification.RejectedDuplicateBan, "c1", []Action{ActionDM, ActionBan, ActionAuditLog}},
		{verification.RejectedDuplicateDeny, "", []Action{ActionDM}},
		{verification.RejectedAnonymized, "", []Action{ActionDM}},
		{verification.RejectedTooNew, "c1", []Action{ActionDM, ActionAuditLog}},
	}
	for _, tc := range cases {
		got := Plan(verdict(tc.outcome), Target{LogChannelID: tc.channel})
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s channel=%q: expected %v, got %v", tc.outcome, tc.channel, tc.want, got)
		}
	}
}

func TestProcessBanOrder(t *testing.T) {
	platform := &fakePlatform{}
	recorder := newRecorder()
	sink := &auditSink{}
	n := New(platform, fakeSettings{channel: "c1"}, audit.NewLogger(sink, nil), recorder, Options{DMEnabled: true}, nil)

	n.process(context.Background(), task{id: "t1", guildID: "g1", verdict: verdict(verification.RejectedDuplicateBan)})

	want := []string{"dm", "ban", "audit_log:c1"}
	if !reflect.DeepEqual(platform.calls, want) {
		t.Fatalf("expected %v, got %v", want, platform.calls)
	}
	if platform.banReason != BanReason {
		t.Fatalf("expected ban reason %q, got %q", BanReason, platform.banReason)
	}
	if len(sink.entries) != 2 || sink.entries[0].Event != audit.EventMemberBanned {
		t.Fatalf("unexpected audit entries: %+v", sink.entries)
	}
	if !strings.Contains(platform.dms[0].Description, "複垢") {
		t.Fatalf("expected japanese ban DM, got %q", platform.dms[0].Description)
	}
}

func TestProcessContinuesAfterFailure(t *testing.T) {
	platform := &fakePlatform{dmErr: errors.New("cannot send messages to this user"), hasRole: true}
	recorder := newRecorder()
	n := New(platform, nil, nil, recorder, Options{DMEnabled: true}, nil)

	n.process(context.Background(), task{guildID: "g1", verdict: verdict(verification.Accepted)})

	if !reflect.DeepEqual(platform.calls, []string{"dm", "grant_role"}) {
		t.Fatalf("expected role grant after failed DM, got %v", platform.calls)
	}
	if recorder.failed["dm"] != 1 || recorder.actions["grant_role"] != 1 {
		t.Fatalf("unexpected recorder state: %+v", recorder)
	}
}

func TestMissingRoleIsNoop(t *testing.T) {
	platform := &fakePlatform{hasRole: false}
	recorder := newRecorder()
	n := New(platform, nil, nil, recorder, Options{}, nil)

	n.process(context.Background(), task{guildID: "g1", verdict: verdict(verification.Accepted)})

	if !reflect.DeepEqual(platform.calls, []string{"grant_role"}) {
		t.Fatalf("expected only a role lookup with DMs disabled, got %v", platform.calls)
	}
	if recorder.failed["grant_role"] != 0 {
		t.Fatalf("expected missing role not to count as failure")
	}
}

func TestDispatchQueueFull(t *testing.T) {
	recorder := newRecorder()
	n := New(&fakePlatform{}, nil, nil, recorder, Options{QueueSize: 1}, nil)
	ctx := context.Background()

	if err := n.Dispatch(ctx, "g1", verdict(verification.Accepted)); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	err := n.Dispatch(ctx, "g1", verdict(verification.Accepted))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if recorder.dropped != 1 {
		t.Fatalf("expected 1 drop, got %d", recorder.dropped)
	}
}

func TestRunDrainsOnShutdown(t *testing.T) {
	platform := &fakePlatform{hasRole: true}
	n := New(platform, nil, nil, nil, Options{QueueSize: 4}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < 3; i++ {
		if err := n.Dispatch(ctx, "g1", verdict(verification.Accepted)); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	cancel()
	if err := n.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n.Pending() != 0 {
		t.Fatalf("expected queue drained, %d left", n.Pending())
	}
	platform.mu.Lock()
	defer platform.mu.Unlock()
	if len(platform.calls) != 3 {
		t.Fatalf("expected 3 role grants, got %v", platform.calls)
	}
}

func TestLogEmbedFields(t *testing.T) {
	v := verdict(verification.RejectedDuplicateDeny)
	embed := LogEmbed(v, configColors())

	if embed.Title != "Verification Log" || embed.Color != 0xff0000 {
		t.Fatalf("unexpected embed header: %q %x", embed.Title, embed.Color)
	}
	names := make([]string, 0, len(embed.Fields))
	for _, field := range embed.Fields {
		names = append(names, field.Name)
	}
	want := []string{"User ID", "Username", "Email", "Created At", "IP", "Country", "VPN/Proxy", "Status"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected fields %v, got %v", want, names)
	}
	if embed.Fields[7].Value != "Failed (duplicate_ip)" {
		t.Fatalf("unexpected status %q", embed.Fields[7].Value)
	}
}

func TestDMTextFallsBackToJapanese(t *testing.T) {
	got := DMText("fr", verdict(verification.RejectedAnonymized))
	if got != "@alice、vpn,proxyを外してから来い" {
		t.Fatalf("unexpected DM text %q", got)
	}
	if en := DMText("en", verdict(verification.RejectedTooNew)); !strings.HasPrefix(en, "@alice, your account is too new") {
		t.Fatalf("unexpected english DM %q", en)
	}
}

func configColors() config.EmbedColors {
	return config.EmbedColors{Success: 0x00ff00, Failure: 0xff0000}
}
