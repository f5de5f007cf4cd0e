package render

import (
	"strings"
	"testing"
)

type sample struct {
	XMLName struct{} `xml:"Sample" json:"-"`
	Name    string   `xml:"Name" json:"name"`
}

func TestXMLMarshalPrependsDTD(t *testing.T) {
	b, err := XML{}.Marshal(sample{Name: "bucket"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), xmlDTD) {
		t.Errorf("expected XML body to start with DTD, got %q", string(b))
	}
	if !strings.Contains(string(b), "<Name>bucket</Name>") {
		t.Errorf("expected marshaled body, got %q", string(b))
	}
}

func TestJSONContentTypeHasCharset(t *testing.T) {
	if ct := (JSON{}).ContentType(); ct != "application/json; charset=utf-8" {
		t.Errorf("ContentType() = %q", ct)
	}
}

func TestXMLContentType(t *testing.T) {
	if ct := (XML{}).ContentType(); ct != "application/xml" {
		t.Errorf("ContentType() = %q", ct)
	}
}
