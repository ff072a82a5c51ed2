package utils

import (
	"reflect"
	"testing"
)

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "a, b,c", []string{"a", "b", "c"}},
		{"empty parts dropped", " a ,, ,b ", []string{"a", "b"}},
		{"empty input", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitAndTrim(tt.in, ",")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitAndTrim(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"AC-1", "task-2", "AC-1", "tc-3", "task-2"})
	want := []string{"AC-1", "task-2", "tc-3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedupe() = %v, want %v", got, want)
	}

	if got := Dedupe(nil); got == nil || len(got) != 0 {
		t.Errorf("Dedupe(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := []struct {
		ptr  string
		want string
	}{
		{"", ""},
		{"#", ""},
		{"/goals/acceptance_criteria/0/status", "goals.acceptance_criteria[0].status"},
		{"#/metadata/last_sync", "metadata.last_sync"},
		{"/a~1b/c~0d", "a/b.c~d"},
	}

	for _, tt := range tests {
		if got := JSONPointerToPath(tt.ptr); got != tt.want {
			t.Errorf("JSONPointerToPath(%q) = %q, want %q", tt.ptr, got, tt.want)
		}
	}
}
