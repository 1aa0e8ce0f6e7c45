// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package version

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{
			name:     "returns current version",
			expected: Version,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetVersion()
			if result != tt.expected {
				t.Errorf("GetVersion() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestVersionConstant(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestString(t *testing.T) {
	orig := Commit
	defer func() { Commit = orig }()
	Commit = "deadbeef"

	s := String()
	if !strings.Contains(s, Version) {
		t.Errorf("String() = %q, want it to contain version %q", s, Version)
	}
	if !strings.Contains(s, "deadbeef") {
		t.Errorf("String() = %q, want it to contain commit %q", s, "deadbeef")
	}
}

func TestString_DefaultsUnknown(t *testing.T) {
	if Commit == "" || BuildDate == "" {
		t.Error("Commit and BuildDate should have non-empty defaults")
	}
}
