package links

import (
	"reflect"
	"testing"
)

var platformDomains = []string{"twitter.com", "x.com"}

func TestExtract_Empty(t *testing.T) {
	if got := Extract(""); got != nil {
		t.Errorf("expected no links, got %v", got)
	}
	if got := Extract("no links here"); got != nil {
		t.Errorf("expected no links, got %v", got)
	}
}

func TestExtract_OrderAndDuplicates(t *testing.T) {
	text := "a https://x.com/u/status/1 b http://example.com c https://x.com/u/status/1"
	want := []string{"https://x.com/u/status/1", "http://example.com", "https://x.com/u/status/1"}
	if got := Extract(text); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFilterSupported(t *testing.T) {
	urls := []string{
		"https://example.com/a",
		"https://x.com/user/status/1",
		"https://mobile.twitter.com/user/status/2",
		"https://notx.com/user/status/3",
		"https://x.com.evil.com/user/status/4",
	}
	want := []string{
		"https://x.com/user/status/1",
		"https://mobile.twitter.com/user/status/2",
	}
	if got := FilterSupported(urls, platformDomains); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("https://twitter.com/user/status/1", platformDomains) {
		t.Error("twitter.com should be supported")
	}
	if !IsSupported("https://X.com/user/status/1", platformDomains) {
		t.Error("host match should be case-insensitive")
	}
	if IsSupported("https://example.com/x.com", platformDomains) {
		t.Error("path must not count as a host match")
	}
	if IsSupported("not a url", platformDomains) {
		t.Error("non-URL input should not be supported")
	}
}
