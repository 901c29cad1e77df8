package buildinfo

import (
	"strings"
	"testing"
)

func TestGetReflectsPackageVars(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.Commit != Commit {
		t.Errorf("Commit = %q, want %q", info.Commit, Commit)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}

func TestStringContainsVersionAndCommit(t *testing.T) {
	s := String()
	if !strings.Contains(s, Version) {
		t.Errorf("String() = %q, missing version %q", s, Version)
	}
	if !strings.Contains(s, Commit) {
		t.Errorf("String() = %q, missing commit %q", s, Commit)
	}
}
