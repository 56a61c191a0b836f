package page

import "strings"

type Kind string

const (
	CSS   Kind = "css"
	XPath Kind = "xpath"
)

// Locator is one concrete way of finding a concept on a page.
type Locator struct {
	Kind Kind
	Expr string
}

// ParseLocator reads "css:<selector>" and "xpath:<expr>" strings. Unprefixed
// expressions starting with "/", "./" or "(" are XPath, anything else is CSS.
func ParseLocator(s string) Locator {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "css:"):
		return Locator{Kind: CSS, Expr: strings.TrimSpace(s[len("css:"):])}
	case strings.HasPrefix(s, "xpath:"):
		return Locator{Kind: XPath, Expr: strings.TrimSpace(s[len("xpath:"):])}
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "./"), strings.HasPrefix(s, "("):
		return Locator{Kind: XPath, Expr: s}
	default:
		return Locator{Kind: CSS, Expr: s}
	}
}

func ParseLocators(list []string) []Locator {
	locators := make([]Locator, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			continue
		}
		locators = append(locators, ParseLocator(s))
	}
	return locators
}

func (l Locator) String() string {
	return string(l.Kind) + ":" + l.Expr
}
