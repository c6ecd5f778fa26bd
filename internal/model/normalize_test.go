package model

import "testing"

func TestNormalizeGender(t *testing.T) {
	cases := []struct {
		raw  string
		want Gender
	}{
		{"male", GenderMale},
		{"Male", GenderMale},
		{"MALE", GenderMale},
		{"  female ", GenderFemale},
		{"", GenderUnknown},
		{"hembra", GenderUnknown},
	}
	for _, tc := range cases {
		if got := NormalizeGender(tc.raw); got != tc.want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeInteractionStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want InteractionStatus
	}{
		{"liked", StatusLiked},
		{"LIKED", StatusLiked},
		{"disliked", StatusDisliked},
		{"viewed", StatusViewed},
		{"", StatusViewed},
		{"pending", StatusViewed},
		{"requested", StatusViewed},
	}
	for _, tc := range cases {
		if got := NormalizeInteractionStatus(tc.raw); got != tc.want {
			t.Errorf("NormalizeInteractionStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeHistoryStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want HistoryStatus
	}{
		{"pending", HistoryPending},
		{"completed", HistoryCompleted},
		{"cancelled", HistoryCancelled},
		{"refunded", HistoryRefunded},
		{"", HistoryPending},
		{"processing", HistoryPending},
	}
	for _, tc := range cases {
		if got := NormalizeHistoryStatus(tc.raw); got != tc.want {
			t.Errorf("NormalizeHistoryStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
	}{
		{"user", RoleUser},
		{"institution", RoleInstitution},
		{"admin", RoleAdmin},
		{"", RoleUser},
		{"superadmin", RoleUser},
	}
	for _, tc := range cases {
		if got := NormalizeRole(tc.raw); got != tc.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
