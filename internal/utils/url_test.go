package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	normalized, domain, err := NormalizeURL("https://Example.com/path?utm_source=test&x=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain != "example.com" {
		t.Fatalf("unexpected domain: %s", domain)
	}
	if normalized != "https://example.com/path?x=1" {
		t.Fatalf("unexpected normalized url: %s", normalized)
	}
}

func TestNormalizeURLPunycode(t *testing.T) {
	_, domain, err := NormalizeURL("https://例え.jp/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain != "xn--r8jz45g.jp" {
		t.Fatalf("expected punycode host, got %s", domain)
	}
}

func TestDomainMatch(t *testing.T) {
	allow := ToSet([]string{"good.com"})
	block := ToSet([]string{"Bad.com"})
	allowed, blocked := DomainMatch("good.com", allow, block)
	if !allowed || blocked {
		t.Fatalf("expected allow only")
	}
	allowed, blocked = DomainMatch("cdn.bad.com", allow, block)
	if allowed || !blocked {
		t.Fatalf("expected subdomain of blocked domain to be blocked")
	}
	allowed, blocked = DomainMatch("other.org", allow, block)
	if allowed || blocked {
		t.Fatalf("expected no match")
	}
}

func TestExtractInvites(t *testing.T) {
	got := ExtractInvites("join discord.gg/abc and https://discord.com/invite/x-y or discordapp.com/invite/z")
	want := []string{"discord.gg/abc", "discord.com/invite/x-y", "discordapp.com/invite/z"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
