package models

import "testing"

func TestClassifyContent(t *testing.T) {
	cases := []struct {
		content  string
		expected NotificationCategory
	}{
		{
			content:  "Congratulations, Your application has been accepted.",
			expected: CategoryApproved,
		},
		{
			content:  "Sorry, Your application has been rejected.",
			expected: CategoryRejected,
		},
		{
			content:  "Your appointment with Bob X has been completed",
			expected: CategoryOther,
		},
		{
			content:  "Accepted", // match is case sensitive
			expected: CategoryOther,
		},
		{
			content:  "",
			expected: CategoryOther,
		},
	}

	for _, c := range cases {
		got := ClassifyContent(c.content)
		if got != c.expected {
			t.Fatalf("%q: expected %s, got %s", c.content, c.expected, got)
		}
	}
}

func TestNotificationBadge(t *testing.T) {
	cases := []struct {
		n        Notification
		expected NotificationCategory
	}{
		{
			n:        Notification{Category: CategoryApproved, Content: "anything"},
			expected: CategoryApproved,
		},
		{
			n:        Notification{Category: CategoryCompleted, Content: "was accepted"},
			expected: CategoryOther,
		},
		{
			n:        Notification{Content: "Sorry, Your application has been rejected."},
			expected: CategoryRejected,
		},
		{
			n:        Notification{Category: CategoryReminder},
			expected: CategoryOther,
		},
	}

	for _, c := range cases {
		if got := c.n.Badge(); got != c.expected {
			t.Fatalf("expected %s, got %s", c.expected, got)
		}
	}
}

func TestUserFullName(t *testing.T) {
	u := User{Firstname: "Bob", Lastname: "X"}
	if u.FullName() != "Bob X" {
		t.Fatalf("expected Bob X, got %q", u.FullName())
	}
	u = User{Firstname: "Alice"}
	if u.FullName() != "Alice" {
		t.Fatalf("expected Alice, got %q", u.FullName())
	}
}
