package shared

// Breadcrumb represents a navigation trail entry
type Breadcrumb struct {
	Title string
	URL   string
}

// Layout is the data every page passes to the base layout
type Layout struct {
	Title       string
	ActiveNav   string
	Breadcrumbs []Breadcrumb
	UserEmail   string
	UserUID     string
	// Flash is a one-off message shown above the content
	Flash     string
	FlashKind string
}

// Crumbs builds a trail that always starts at the storefront home.
func Crumbs(pairs ...string) []Breadcrumb {
	trail := []Breadcrumb{{Title: "Home", URL: "/"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		trail = append(trail, Breadcrumb{Title: pairs[i], URL: pairs[i+1]})
	}
	return trail
}
