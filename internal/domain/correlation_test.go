package domain

import "testing"

func TestParseCorrelationTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		subject string
		id      int64
		ok      bool
	}{
		{"Re: [RFP-42] Request for Proposal: Laptops", 42, true},
		{"re: rfp-7 quote attached", 7, true},
		{"RFP-3 and RFP-9", 3, true},
		{"Quote for laptops", 0, false},
		{"RFP-abc", 0, false},
	}

	for _, tc := range cases {
		id, ok := ParseCorrelationTag(tc.subject)
		if ok != tc.ok || id != tc.id {
			t.Fatalf("%q: want (%d,%v), got (%d,%v)", tc.subject, tc.id, tc.ok, id, ok)
		}
	}
}

func TestInvitationSubject(t *testing.T) {
	t.Parallel()

	got := InvitationSubject(RFP{ID: 12, Title: "Office Laptops"})
	if got != "[RFP-12] Request for Proposal: Office Laptops" {
		t.Fatalf("unexpected subject %q", got)
	}

	got = InvitationSubject(RFP{ID: 3})
	if got != "[RFP-3] Request for Proposal: Procurement Request" {
		t.Fatalf("unexpected fallback subject %q", got)
	}

	if id, ok := ParseCorrelationTag("Re: " + got); !ok || id != 3 {
		t.Fatalf("subject does not round trip: %d %v", id, ok)
	}
}
