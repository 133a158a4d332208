package listings

import "strings"

// Bucket is a coarse schedule filter.
type Bucket string

const (
	BucketAny      Bucket = ""
	BucketToday    Bucket = "today"
	BucketTomorrow Bucket = "tomorrow"
	// BucketWeek approximates "within a week" with a fixed keyword list; a
	// Monday ride is not matched.
	BucketWeek Bucket = "week"
)

var weekKeywords = []string{"today", "tomorrow", "friday", "saturday", "sunday"}

// Matches reports whether the schedule text falls in the bucket. Unknown
// buckets match everything.
func (b Bucket) Matches(schedule string) bool {
	schedule = strings.ToLower(schedule)
	switch b {
	case BucketToday:
		return strings.Contains(schedule, "today")
	case BucketTomorrow:
		return strings.Contains(schedule, "tomorrow")
	case BucketWeek:
		for _, kw := range weekKeywords {
			if strings.Contains(schedule, kw) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// CardView is a card together with its visibility after a search.
type CardView struct {
	Card
	Visible bool
}

// Result is the listing state after a search.
type Result struct {
	Term      string
	Bucket    Bucket
	Cards     []CardView
	Visible   int
	NoResults bool
}

// ContainerVisible reports whether the listing grid is shown.
func (r Result) ContainerVisible() bool {
	return !r.NoResults
}

// VisibleCards returns only the shown cards.
func (r Result) VisibleCards() []Card {
	out := make([]Card, 0, r.Visible)
	for _, c := range r.Cards {
		if c.Visible {
			out = append(out, c.Card)
		}
	}
	return out
}

// Search recomputes visibility of every card from scratch. A card is shown
// when its text contains term (case-insensitive) and its schedule matches bucket.
func Search(cards []Card, term string, bucket Bucket) Result {
	needle := strings.ToLower(strings.TrimSpace(term))
	res := Result{Term: strings.TrimSpace(term), Bucket: bucket, Cards: make([]CardView, len(cards))}
	for i, card := range cards {
		textMatch := needle == "" || strings.Contains(strings.ToLower(card.Text), needle)
		visible := textMatch && bucket.Matches(card.Schedule)
		res.Cards[i] = CardView{Card: card, Visible: visible}
		if visible {
			res.Visible++
		}
	}
	res.NoResults = res.Visible == 0
	return res
}

// Search filters the catalog's cards.
func (c *Catalog) Search(term string, bucket Bucket) Result {
	return Search(c.cards, term, bucket)
}
