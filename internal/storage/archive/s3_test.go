package archive

import (
	"errors"
	"strings"
	"testing"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

func TestS3Storage_ImplementsBackend(t *testing.T) {
	var _ Backend = (*S3Storage)(nil)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{}); !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("NewS3 without bucket = %v, want ErrConfigMissing", err)
	}
	s, err := NewS3(S3Config{Bucket: "b", Endpoint: "http://localhost:9000", Prefix: "/runs/"})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if s.prefix != "runs" {
		t.Errorf("prefix = %q, want runs", s.prefix)
	}
}

func TestS3Config_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.json", "file.json"},
		{"archive", "file.json", "archive/file.json"},
		{"archive/", "results/NIO/x.json", "archive/results/NIO/x.json"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.Trim(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
		if rel := s.relative(got); rel != tt.path {
			t.Errorf("relative(%q) = %q, want %q", got, rel, tt.path)
		}
	}
}

func TestS3_ObjectKeyRejectsTraversal(t *testing.T) {
	s := &S3Storage{prefix: "archive"}
	if _, err := s.objectKey("../other-tenant/x"); err == nil {
		t.Error("expected traversal to be rejected")
	}
	got, err := s.objectKey("/results//NIO/x.json")
	if err != nil || got != "archive/results/NIO/x.json" {
		t.Errorf("objectKey = %q, %v", got, err)
	}
}
