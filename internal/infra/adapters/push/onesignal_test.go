package push

import (
	"testing"

	"interpreter-booking/internal/config"
	"interpreter-booking/internal/domain/ports/adapter"
)

func testConfig() config.PushConfig {
	return config.PushConfig{
		AppID:          "app-1",
		EmergencySound: "emergency_booking",
		NormalSound:    "normal_booking",
	}
}

func TestBuildNotification_FiltersAreORCombined(t *testing.T) {
	n := buildNotification(testConfig(), &adapter.PushPayload{
		Emails: []string{"a@example.com", "b@example.com"},
		Title:  "Ny bokning",
		Body:   "text",
	})

	filters := n["filters"].([]map[string]string)
	if len(filters) != 3 {
		t.Fatalf("filters = %d entries, want tag OR tag", len(filters))
	}
	if filters[0]["value"] != "a@example.com" || filters[2]["value"] != "b@example.com" {
		t.Fatalf("filters = %v", filters)
	}
	if filters[1]["operator"] != "OR" {
		t.Fatalf("separator = %v", filters[1])
	}
}

func TestBuildNotification_SoundsFollowEmergencyFlag(t *testing.T) {
	normal := buildNotification(testConfig(), &adapter.PushPayload{Emails: []string{"a@example.com"}})
	if normal["android_sound"] != "normal_booking" || normal["ios_sound"] != "normal_booking.mp3" {
		t.Fatalf("normal sounds = %v / %v", normal["android_sound"], normal["ios_sound"])
	}

	urgent := buildNotification(testConfig(), &adapter.PushPayload{
		Emails:    []string{"a@example.com"},
		Emergency: true,
	})
	if urgent["android_sound"] != "emergency_booking" || urgent["ios_sound"] != "emergency_booking.mp3" {
		t.Fatalf("emergency sounds = %v / %v", urgent["android_sound"], urgent["ios_sound"])
	}
}

func TestBuildNotification_SendAfterOnlyWhenDelayed(t *testing.T) {
	now := buildNotification(testConfig(), &adapter.PushPayload{Emails: []string{"a@example.com"}})
	if _, ok := now["send_after"]; ok {
		t.Fatal("immediate payload carries send_after")
	}

	delayed := buildNotification(testConfig(), &adapter.PushPayload{
		Emails:    []string{"a@example.com"},
		SendAfter: "2026-09-01T09:00:00+02:00",
	})
	if delayed["send_after"] != "2026-09-01T09:00:00+02:00" {
		t.Fatalf("send_after = %v", delayed["send_after"])
	}
}
