// Package templates holds the HTML components of the fleet site. The
// components live in the .templ files; the *_templ.go files next to them are
// generated from those.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"net/http"
	"strconv"

	"github.com/fleetdesk/taxi/internal/form"
)

// Link is an anchor. A link without Href renders as plain text.
type Link struct {
	Label string
	Href  string
}

// Cell is one table cell; Href turns it into a link.
type Cell = Link

// LayoutView is the chrome around every page.
type LayoutView struct {
	Title string
	// Username is empty for anonymous pages.
	Username string
}

var navLinks = []Link{
	{Label: "Home page", Href: "/"},
	{Label: "Manufacturers", Href: "/manufacturers/"},
	{Label: "Cars", Href: "/cars/"},
	{Label: "Drivers", Href: "/drivers/"},
}

// IndexView holds the home page counts.
type IndexView struct {
	Drivers       int64
	Cars          int64
	Manufacturers int64
	Visits        int
}

// Pager is the paging state of a list.
type Pager struct {
	Number     int
	NumPages   int
	HasPrev    bool
	HasNext    bool
	PrevNumber int
	NextNumber int
	BasePath   string
	OtherPages bool
}

// ListView is a paginated table of records.
type ListView struct {
	Title     string
	CreateURL string
	Headers   []string
	Rows      [][]Cell
	Empty     string
	Pager     Pager
}

// Attr is a labelled value of a detail page.
type Attr struct {
	Label string
	Value string
}

// Section lists related records below the attributes.
type Section struct {
	Title string
	Items []Link
	Empty string
}

// DetailView shows one record.
type DetailView struct {
	Title    string
	Attrs    []Attr
	Sections []Section
	Actions  []Link
}

// FormView renders a create or update form.
type FormView struct {
	Title  string
	Action string
	Submit string
	Cancel string
	Form   *form.Form
}

// ConfirmView asks before deleting a record.
type ConfirmView struct {
	Title   string
	Object  string
	Warning string
	Action  string
	Cancel  string
}

// LoginView is the sign-in form. Next is carried through in a hidden field.
type LoginView struct {
	Form *form.Form
	Next string
}

// ErrorTitle is the page title for an error status.
func ErrorTitle(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return http.StatusText(http.StatusInternalServerError)
}

func pageURL(base string, n int) string {
	return base + "?page=" + strconv.Itoa(n)
}

func timesWord(n int) string {
	if n == 1 {
		return "time"
	}
	return "times"
}

func fieldID(name string) string { return "id_" + name }
