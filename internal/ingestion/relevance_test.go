package ingestion

import (
	"testing"

	"github.com/finalapps/orbit/internal/domain"
)

func TestScoreSolutionSeekingQuestion(t *testing.T) {
	c := domain.Candidate{Title: "How do I find an app for subscriptions?"}

	// base 50, three solution phrases, a question mark, an app term and a
	// business term push the raw score past the cap
	if got := Score(c); got != 100 {
		t.Fatalf("score %d, want 100", got)
	}
	if !Admit(Score(c), DefaultAdmitThreshold) {
		t.Fatal("solution-seeking question must be admitted")
	}
}

func TestScoreAnnouncementRejected(t *testing.T) {
	c := domain.Candidate{Title: "About the community forum"}
	if got := Score(c); got != 20 {
		t.Fatalf("score %d, want 20", got)
	}
	if Admit(Score(c), DefaultAdmitThreshold) {
		t.Fatal("announcements must be rejected")
	}
}

func TestScoreClampsAtZero(t *testing.T) {
	c := domain.Candidate{Title: "Maintenance announcement"}
	if got := Score(c); got != 0 {
		t.Fatalf("score %d, want 0 after double exclusion", got)
	}
}

func TestScoreEngagementBoosts(t *testing.T) {
	quiet := domain.Candidate{Title: "Problem with checkout"}
	busy := domain.Candidate{Title: "Problem with checkout", Views: 60, Replies: 3}
	if Score(busy)-Score(quiet) != 15 {
		t.Fatalf("engagement boost %d, want 15", Score(busy)-Score(quiet))
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	c := domain.Candidate{
		Title:   "Need help with shipping rates?",
		Body:    "Looking for a plugin to handle zone based rates.",
		Views:   120,
		Replies: 4,
	}
	first := Score(c)
	for i := 0; i < 10; i++ {
		if got := Score(c); got != first {
			t.Fatalf("score changed between runs: %d vs %d", got, first)
		}
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Best app for shipping labels", "Apps"}, // app outranks shipping
		{"Theme customization question", "Themes"},
		{"Shipping rates for international orders", "Shipping"},
		{"Checkout keeps failing", "Payments"},
		{"Inventory sync issues", "Products"},
		{"Order fulfillment delays", "Orders"},
		{"SEO advice needed", "Marketing"},
		{"Random musings", "General"},
	}
	for _, tc := range cases {
		if got := Categorize(tc.title); got != tc.want {
			t.Fatalf("Categorize(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestPrioritizeEngagementTiers(t *testing.T) {
	if got := Prioritize(domain.Candidate{Title: "quiet post", Views: 1200}); got != domain.InquiryPriorityHigh {
		t.Fatalf("high engagement got %s", got)
	}
	if got := Prioritize(domain.Candidate{Title: "medium post", Views: 600}); got != domain.InquiryPriorityNormal {
		t.Fatalf("medium engagement got %s", got)
	}
	if got := Prioritize(domain.Candidate{Title: "site is down, urgent"}); got != domain.InquiryPriorityUrgent {
		t.Fatalf("urgency keyword got %s", got)
	}
	if got := Prioritize(domain.Candidate{Title: "quiet question"}); got != domain.InquiryPriorityNormal {
		t.Fatalf("default got %s", got)
	}
}
