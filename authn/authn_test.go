package authn

import (
	"testing"
	"time"
)

func TestSigV2RoundTrip(t *testing.T) {
	r := CanonicalRequest{
		Method:      "GET",
		ContentMD5:  "",
		ContentType: "",
		Date:        "Tue, 27 Mar 2007 19:36:42 +0000",
		Resource:    "/mybucket/photo.jpg",
	}
	sig := SignV2("secretkey", r)
	if !VerifyV2("secretkey", r, sig) {
		t.Fatal("expected generated signature to verify")
	}
	if VerifyV2("wrongkey", r, sig) {
		t.Fatal("expected verification with wrong key to fail")
	}
}

func TestParseAuthorizationHeader(t *testing.T) {
	accessKey, sig, ok := ParseAuthorizationHeader("AWS AKIAEXAMPLE:abc123==")
	if !ok || accessKey != "AKIAEXAMPLE" || sig != "abc123==" {
		t.Fatalf("got (%q, %q, %v)", accessKey, sig, ok)
	}
	if _, _, ok := ParseAuthorizationHeader("Bearer xyz"); ok {
		t.Fatal("expected non-AWS header to fail parsing")
	}
}

func TestSwiftTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("signing-key"), time.Hour)
	tok, err := issuer.Issue("acct1", "user1")
	if err != nil {
		t.Fatal(err)
	}
	account, user, err := issuer.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if account != "acct1" || user != "user1" {
		t.Fatalf("got account=%q user=%q", account, user)
	}
}

func TestSwiftTokenRejectsWrongKey(t *testing.T) {
	issuer := NewTokenIssuer([]byte("key-a"), time.Hour)
	tok, _ := issuer.Issue("acct", "user")
	other := NewTokenIssuer([]byte("key-b"), time.Hour)
	if _, _, err := other.Verify(tok); err == nil {
		t.Fatal("expected verification with different key to fail")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, salt, err := HashPassword("s3kr3t")
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword("s3kr3t", hash, salt) {
		t.Fatal("expected correct password to verify")
	}
	if VerifyPassword("wrong", hash, salt) {
		t.Fatal("expected wrong password to fail verification")
	}
}
