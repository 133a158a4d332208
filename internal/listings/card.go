// Package listings reads the statically rendered ride cards and filters them.
package listings

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

//go:embed rides.html
var defaultMarkup string

// Card is one ride listing as displayed on the site.
type Card struct {
	ID       string `json:"id"`
	Driver   string `json:"driver"`
	From     string `json:"from"`
	To       string `json:"to"`
	Schedule string `json:"schedule"`
	Price    string `json:"price"`
	// Text is the card's visible text with whitespace collapsed.
	Text string `json:"-"`
}

// Catalog is the fixed set of listing cards.
type Catalog struct {
	cards []Card
}

// DefaultCatalog parses the built-in listing markup.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(strings.NewReader(defaultMarkup))
}

// LoadCatalog parses listing markup from a file, or the built-in markup when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("listings: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// NewCatalog wraps already-built cards.
func NewCatalog(cards []Card) *Catalog {
	return &Catalog{cards: append([]Card(nil), cards...)}
}

// Cards returns a copy of every card in page order.
func (c *Catalog) Cards() []Card {
	return append([]Card(nil), c.cards...)
}

// ByID looks up a card by its data-ride-id.
func (c *Catalog) ByID(id string) (Card, bool) {
	for _, card := range c.cards {
		if card.ID == id {
			return card, true
		}
	}
	return Card{}, false
}

// ParseCatalog extracts every element with class "ride-card" from r.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("listings: parse markup: %w", err)
	}
	var cards []Card
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, "ride-card") {
			cards = append(cards, parseCard(n))
			return false
		}
		return true
	})
	return &Catalog{cards: cards}, nil
}

func parseCard(n *html.Node) Card {
	card := Card{
		ID:   attr(n, "data-ride-id"),
		Text: collapse(textContent(n)),
	}
	walk(n, func(c *html.Node) bool {
		if c.Type != html.ElementNode {
			return true
		}
		switch {
		case c.Data == "h3" && card.Driver == "":
			card.Driver = collapse(textContent(c))
		case c.Data == "span" && card.From == "" && labelIs(c, "From:"):
			card.From = collapse(followingText(c))
		case c.Data == "span" && card.To == "" && labelIs(c, "To:"):
			card.To = collapse(followingText(c))
		case c.Data == "svg" && card.Schedule == "":
			if next := nextElement(c); next != nil && next.Data == "span" {
				card.Schedule = collapse(textContent(next))
			}
			return false
		case hasClass(c, "text-lg") && hasClass(c, "font-bold") && card.Price == "":
			card.Price = collapse(textContent(c))
		}
		return true
	})
	return card
}

// walk visits n and its descendants depth-first; fn returning false skips children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// blockElements break words apart; inline markup such as <b> does not.
var blockElements = map[string]bool{
	"address": true, "article": true, "br": true, "dd": true, "div": true, "dl": true,
	"dt": true, "footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// textContent concatenates the text below n, separating block elements.
func textContent(n *html.Node) string {
	var b strings.Builder
	writeText(&b, n)
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte(' ')
	}
}

// followingText is the text after a label element up to the next element.
func followingText(n *html.Node) string {
	var b strings.Builder
	for s := n.NextSibling; s != nil && s.Type == html.TextNode; s = s.NextSibling {
		b.WriteString(s.Data)
	}
	return b.String()
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func labelIs(n *html.Node, label string) bool {
	return strings.EqualFold(collapse(textContent(n)), label)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
