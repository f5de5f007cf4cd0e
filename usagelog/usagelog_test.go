package usagelog

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"
)

func TestEmitWritesOneJSONLine(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf)
	defer Init(io.Discard)

	Emit(Record{
		User:    "alice",
		Dialect: "s3",
		Op:      "get_obj",
		Bucket:  "photos",
		Object:  "cat.png",
		Status:  200,
		Success: true,
	})

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Emit did not produce a single JSON line: %v (buf=%q)", err, buf.String())
	}
	if got["user"] != "alice" || got["op"] != "get_obj" || got["bucket"] != "photos" {
		t.Fatalf("unexpected fields: %+v", got)
	}
	if got["success"] != true {
		t.Fatalf("expected success=true, got %+v", got["success"])
	}
}

func TestEmitMarksFailure(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf)
	defer Init(io.Discard)

	Emit(Record{User: "bob", Op: "put_obj", Status: 403, Success: false})

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Emit did not produce a single JSON line: %v", err)
	}
	if got["success"] != false {
		t.Fatalf("expected success=false, got %+v", got["success"])
	}
	if got["status"].(float64) != 403 {
		t.Fatalf("expected status=403, got %+v", got["status"])
	}
}
