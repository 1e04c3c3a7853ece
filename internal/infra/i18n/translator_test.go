package i18n

import (
	"strings"
	"testing"
)

func TestTranslatorRendersArgs(t *testing.T) {
	tr, err := NewTranslator("sv")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}

	got := tr.T("accept.already_booked", "2026-09-01 10:00:00")
	if !strings.Contains(got, "2026-09-01 10:00:00") {
		t.Fatalf("rendered message misses argument: %q", got)
	}
	if strings.Contains(got, "%!") {
		t.Fatalf("format verb mismatch: %q", got)
	}
}

func TestTranslatorMissingKeyFallsBackToKey(t *testing.T) {
	tr, err := NewTranslator("sv")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if got := tr.T("no.such.key"); got != "no.such.key" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestTranslatorUnknownLocale(t *testing.T) {
	if _, err := NewTranslator("xx"); err == nil {
		t.Fatal("expected error for missing locale")
	}
}

func TestCatalogArgCounts(t *testing.T) {
	tr, err := NewTranslator("sv")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}

	cases := []struct {
		key  string
		args int
	}{
		{"push.new_booking", 3},
		{"push.new_emergency_booking", 2},
		{"push.job_accepted", 3},
		{"push.job_cancelled_customer", 2},
		{"push.job_cancelled_translator", 2},
		{"push.job_expired", 3},
		{"push.session_start_remind_physical", 5},
		{"push.session_start_remind_phone", 4},
		{"sms.physical_job", 4},
		{"sms.phone_job", 3},
		{"accept.success", 3},
		{"accept.already_booked", 1},
		{"cancel.call_support", 1},
	}
	for _, tc := range cases {
		args := make([]interface{}, tc.args)
		for i := range args {
			args[i] = "x"
		}
		got := tr.T(tc.key, args...)
		if got == tc.key {
			t.Errorf("key %q missing from catalog", tc.key)
			continue
		}
		if strings.Contains(got, "%!") {
			t.Errorf("key %q: arg count mismatch: %q", tc.key, got)
		}
	}
}
