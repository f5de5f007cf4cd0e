package router

import (
	"testing"

	"github.com/NVIDIA/rgwcore/envelope"
)

type stubHandler string

func (s stubHandler) Handle(*envelope.Envelope) error { return nil }

func TestResolveLongestPrefixWins(t *testing.T) {
	r := New()
	r.RegisterDefault(stubHandler("s3"))
	r.Register("swift", stubHandler("swift"))
	r.Register("swift/v1", stubHandler("swift-v1"))
	r.Register("auth", stubHandler("auth"))

	h, rest := r.Resolve(ParsePath("/swift/v1/AUTH_test/container/obj"))
	if h != stubHandler("swift-v1") {
		t.Fatalf("expected longest-prefix match swift/v1, got %v", h)
	}
	if rest != "AUTH_test/container/obj" {
		t.Fatalf("rest = %q", rest)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	r := New()
	r.RegisterDefault(stubHandler("s3"))
	r.Register("swift", stubHandler("swift"))

	h, _ := r.Resolve(ParsePath("/mybucket/mykey"))
	if h != stubHandler("s3") {
		t.Fatalf("expected default handler, got %v", h)
	}
}

func TestResolveNoSkippedLargestPrefix(t *testing.T) {
	// Regression test for the Open Question bug: registering many
	// same-or-larger-sized prefixes must never cause the largest one to be
	// silently skipped.
	r := New()
	r.Register("a", stubHandler("short"))
	r.Register("aaaaaaaaaa", stubHandler("longest"))
	r.Register("aaaaa", stubHandler("mid"))

	h, _ := r.Resolve(ParsePath("/aaaaaaaaaa/rest"))
	if h != stubHandler("longest") {
		t.Fatalf("expected longest prefix to match, got %v", h)
	}
}
