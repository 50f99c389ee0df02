package ingestion

import (
	"strings"

	"github.com/finalapps/orbit/internal/domain"
)

// Scoring weights for the relevance heuristic. The keyword heuristic is
// deliberately cheap and auditable: operators must be able to see why an
// item was admitted, and the forum source is too noisy for anything learned.
const (
	baseScore        = 50
	solutionWeight   = 15
	questionWeight   = 10
	appTermWeight    = 8
	businessWeight   = 5
	exclusionPenalty = 30
	viewsBoost       = 5
	repliesBoost     = 10
)

// solutionPhrases indicate someone actively looking for help or a tool.
var solutionPhrases = []string{
	"looking for", "need", "help", "how to", "how do i", "how can", "find an app",
	"recommend", "suggestion", "which app", "best app", "app for", "problem with",
	"issue with", "trying to", "want to", "need to", "is there", "does anyone know",
	"can someone", "pls help", "please help", "stuck", "having trouble",
}

var appTerms = []string{"app", "plugin", "integration", "tool", "solution", "software"}

var businessTerms = []string{
	"subscription", "shipping", "payment", "checkout", "cart", "discount",
	"upsell", "inventory", "order", "customer", "email", "seo", "marketing",
}

// exclusionPhrases flag announcements and housekeeping posts, not questions.
var exclusionPhrases = []string{
	"about the", "announcement", "celebrating", "welcome to", "introducing",
	"community read-only", "maintenance", "office hours", "ama:", "webinar",
}

var urgencyTerms = []string{"urgent", "emergency", "critical", "down", "broken", "not working"}

// categoryTable maps title keywords to a category, first match wins.
var categoryTable = []struct {
	keywords []string
	category string
}{
	{[]string{"app", "plugin"}, "Apps"},
	{[]string{"theme", "design"}, "Themes"},
	{[]string{"shipping", "delivery"}, "Shipping"},
	{[]string{"payment", "checkout"}, "Payments"},
	{[]string{"product", "inventory"}, "Products"},
	{[]string{"order", "fulfillment"}, "Orders"},
	{[]string{"marketing", "seo"}, "Marketing"},
}

// DefaultCategory is assigned when no keyword matches.
const DefaultCategory = "General"

// DefaultAdmitThreshold is the relevance score a candidate must exceed.
const DefaultAdmitThreshold = 40

// Score computes the 0-100 relevance score for a candidate. It is pure:
// identical input always yields the identical score.
func Score(c domain.Candidate) int {
	title := strings.ToLower(c.Title)
	combined := title + " " + strings.ToLower(c.Body)

	score := baseScore

	for _, phrase := range solutionPhrases {
		if strings.Contains(combined, phrase) {
			score += solutionWeight
		}
	}
	if strings.Contains(title, "?") {
		score += questionWeight
	}
	for _, term := range appTerms {
		if strings.Contains(combined, term) {
			score += appTermWeight
		}
	}
	for _, term := range businessTerms {
		if strings.Contains(combined, term) {
			score += businessWeight
		}
	}
	for _, phrase := range exclusionPhrases {
		if strings.Contains(combined, phrase) {
			score -= exclusionPenalty
		}
	}

	if c.Views > 50 {
		score += viewsBoost
	}
	if c.Replies > 2 {
		score += repliesBoost
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Admit reports whether a candidate's score clears the threshold.
func Admit(score, threshold int) bool {
	return score > threshold
}

// Categorize derives a category from title keywords, first match wins.
func Categorize(title string) string {
	lower := strings.ToLower(title)
	for _, entry := range categoryTable {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.category
			}
		}
	}
	return DefaultCategory
}

// Prioritize derives a priority from engagement metrics, falling back to a
// scan for urgency keywords in the title.
func Prioritize(c domain.Candidate) domain.InquiryPriority {
	if c.Views > 1000 || c.Replies > 20 || c.Likes > 10 {
		return domain.InquiryPriorityHigh
	}
	if c.Views > 500 || c.Replies > 10 || c.Likes > 5 {
		return domain.InquiryPriorityNormal
	}

	lower := strings.ToLower(c.Title)
	for _, term := range urgencyTerms {
		if strings.Contains(lower, term) {
			return domain.InquiryPriorityUrgent
		}
	}
	return domain.InquiryPriorityNormal
}
