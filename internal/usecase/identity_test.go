package usecase

import "testing"

func TestResolveIdentity_CookiePresent(t *testing.T) {
	id := ResolveIdentity("returning-visitor", "10.0.0.1", "Mozilla/5.0")
	if id.Key != "returning-visitor" {
		t.Fatalf("expected cookie value as key, got %s", id.Key)
	}
	if id.SetCookie {
		t.Fatal("expected no new cookie when one is present")
	}
}

func TestResolveIdentity_DerivedKeyTruncatesUserAgent(t *testing.T) {
	id := ResolveIdentity("", "10.0.0.1", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	want := "10.0.0.1-Mozilla/5.0 (Windows"
	if id.Key != want {
		t.Fatalf("expected %q, got %q", want, id.Key)
	}
	if !id.SetCookie || id.CookieValue != want {
		t.Fatalf("expected cookie %q to be set, got %+v", want, id)
	}
}

func TestResolveIdentity_Defaults(t *testing.T) {
	id := ResolveIdentity("", "", "")
	if id.Key != "unknown-ip-" {
		t.Fatalf("expected unknown-ip-, got %q", id.Key)
	}

	short := ResolveIdentity("", "1.2.3.4", "curl/8")
	if short.Key != "1.2.3.4-curl/8" {
		t.Fatalf("expected full short user agent, got %q", short.Key)
	}
}
