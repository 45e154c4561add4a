// Package cardparser extracts catalog products from rendered product cards.
package cardparser

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/niksmo/eco-catalog/internal/core/domain"
	"golang.org/x/net/html"
)

const (
	cardClass     = "product-card"
	materialClass = "product-material"
	priceClass    = "product-price"
	impactClass   = "impact-score"
	newClass      = "new-badge"
	limitedClass  = "limited-badge"

	productIDAttr = "data-product-id"
	impactStar    = "⭐"
)

// Parse returns a product for every element with the product-card class,
// in document order. Cards with neither an id nor a name are skipped.
func Parse(r io.Reader) ([]domain.Product, error) {
	const op = "cardparser.Parse"

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var ps []domain.Product
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if hasClass(n, cardClass) {
			if p, ok := parseCard(n); ok {
				ps = append(ps, p)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return ps, nil
}

func parseCard(card *html.Node) (domain.Product, bool) {
	var p domain.Product

	if h := findFirst(card, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "h3"
	}); h != nil {
		p.Name = textContent(h)
	}

	p.ID = strings.TrimSpace(attr(card, productIDAttr))
	if p.ID == "" {
		p.ID = slug(p.Name)
	}
	if p.ID == "" {
		return domain.Product{}, false
	}

	if n := findClass(card, materialClass); n != nil {
		p.Material = strings.ToLower(textContent(n))
	}

	if n := findClass(card, priceClass); n != nil {
		p.Price = parsePrice(textContent(n))
	}

	p.ImpactScore = domain.NeutralImpactScore
	if n := findClass(card, impactClass); n != nil {
		p.ImpactScore = parseImpact(textContent(n))
	}

	p.IsNew = findClass(card, newClass) != nil
	p.IsLimited = findClass(card, limitedClass) != nil

	return p, true
}

// parsePrice reads the leading whole number of s ignoring currency signs
// and thousands separators: "$1,250.00" is 1250. It returns 0 when s
// holds no digits.
func parsePrice(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-'
	})
	s = strings.ReplaceAll(s, ",", "")

	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// parseImpact counts the stars of s. No stars give the neutral score.
func parseImpact(s string) int {
	n := strings.Count(s, impactStar)
	switch {
	case n == 0:
		return domain.NeutralImpactScore
	case n > domain.MaxImpactScore:
		return domain.MaxImpactScore
	default:
		return n
	}
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findClass(root *html.Node, class string) *html.Node {
	return findFirst(root, func(n *html.Node) bool {
		return hasClass(n, class)
	})
}

// findFirst searches the descendants of root depth first.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if n := findFirst(c, match); n != nil {
			return n
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
