package cli

import (
	"testing"
)

func TestParseArgs_RequiresTargetAndPayload(t *testing.T) {
	t.Parallel()
	cases := [][]string{
		{},
		{"-payload", "x"},
		{"-target", "  ", "-payload", "x"},
		{"-target", "http://h/"},
	}
	for _, args := range cases {
		if _, err := ParseArgs(args); err == nil {
			t.Errorf("ParseArgs(%q): expected error", args)
		}
	}
}

func TestParseArgs_Defaults(t *testing.T) {
	t.Parallel()
	got, err := ParseArgs([]string{"-target", "http://h/p?id=1", "-payload", "a.b(c)"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if got.Target != "http://h/p?id=1" {
		t.Errorf("Target = %q", got.Target)
	}
	if got.Pattern != `a\.b\(c\)` {
		t.Errorf("Pattern should default to the quoted payload, got %q", got.Pattern)
	}
	if got.Expect != nil {
		t.Errorf("Expect should be nil when not given, got %q", *got.Expect)
	}
	if got.Forms != nil || got.Links != nil || got.Cookies != nil {
		t.Error("category toggles should be nil when not given")
	}
	if got.EnvFile != ".env" {
		t.Errorf("EnvFile = %q", got.EnvFile)
	}
}

func TestParseArgs_ExplicitValues(t *testing.T) {
	t.Parallel()
	got, err := ParseArgs([]string{
		"-target", "http://h/",
		"-payload", "' OR 1=1",
		"-pattern", `id=(\d+)`,
		"-expect", "",
		"-forms=false",
		"-cookies",
		"-env", "",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if got.Pattern != `id=(\d+)` {
		t.Errorf("Pattern = %q", got.Pattern)
	}
	if got.Expect == nil || *got.Expect != "" {
		t.Errorf("explicit empty -expect should be kept, got %v", got.Expect)
	}
	if got.Forms == nil || *got.Forms {
		t.Error("-forms=false should be recorded")
	}
	if got.Cookies == nil || !*got.Cookies {
		t.Error("-cookies should be recorded as true")
	}
	if got.Links != nil {
		t.Error("-links was not given")
	}
	if got.EnvFile != "" {
		t.Errorf("EnvFile = %q", got.EnvFile)
	}
}

func TestParseArgs_UnknownFlag(t *testing.T) {
	t.Parallel()
	if _, err := ParseArgs([]string{"-target", "http://h/", "-payload", "x", "-bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
