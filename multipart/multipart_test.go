package multipart

import "testing"

func TestMetaRoundTrip(t *testing.T) {
	m := New("photos/2020.vacation.jpg", "abc123")
	meta := m.Meta()
	key, uploadID, ok := ParseMeta(meta)
	if !ok {
		t.Fatalf("ParseMeta(%q) failed", meta)
	}
	if key != "photos/2020.vacation.jpg" {
		t.Errorf("key = %q, want %q", key, "photos/2020.vacation.jpg")
	}
	if uploadID != "abc123" {
		t.Errorf("uploadID = %q, want %q", uploadID, "abc123")
	}
}

func TestParseMetaSplitsOnLastTwoDots(t *testing.T) {
	// Key itself contains dots; from_meta must split on the LAST two, not
	// the first two.
	key, uploadID, ok := ParseMeta("a.b.c.upload99.meta")
	if !ok {
		t.Fatal("expected ok")
	}
	if key != "a.b.c" || uploadID != "upload99" {
		t.Errorf("got key=%q uploadID=%q, want key=%q uploadID=%q", key, uploadID, "a.b.c", "upload99")
	}
}

func TestParseMetaRejectsNonMeta(t *testing.T) {
	if _, _, ok := ParseMeta("key.uploadid.5"); ok {
		t.Error("expected ok=false for a part name, not a meta name")
	}
	if _, _, ok := ParseMeta("nodothere.meta"); ok {
		t.Error("expected ok=false when there's no upload-id component before .meta")
	}
}

func TestPartName(t *testing.T) {
	m := New("key", "up1")
	if got := m.Part(3); got != "key.up1.3" {
		t.Errorf("Part(3) = %q, want %q", got, "key.up1.3")
	}
}

func TestIsPart(t *testing.T) {
	m := New("photos/2020.vacation.jpg", "abc123")
	if !IsPart(m.Part(7)) {
		t.Errorf("IsPart(%q) = false, want true", m.Part(7))
	}
	if IsPart(m.Meta()) {
		t.Error("IsPart should reject a .meta name")
	}
	if IsPart("plainobject.txt") {
		t.Error("IsPart should reject an ordinary object name")
	}
	if IsPart("noext") {
		t.Error("IsPart should reject a name with no dot")
	}
	if IsPart(".5") {
		t.Error("IsPart should reject a name with an empty upload-id component")
	}
}
