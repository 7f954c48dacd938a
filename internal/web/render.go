package web

import (
	"embed"
	"fmt"
	"html/template"

	"catalog/storefront/internal/service"
	"catalog/storefront/internal/state"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"money": FormatMoney,
		"units": FormatUnits,
		"deref": func(n *int) int {
			if n == nil {
				return 0
			}
			return *n
		},
	}

	t, err := template.New("_root").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

// FormatMoney renders an amount in minor units as dollars, e.g. 1999 -> $19.99
func FormatMoney(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

func FormatUnits(qty int) string {
	return fmt.Sprintf("%d units", qty)
}

// pager is the pagination control plus the form it posts to
type pager struct {
	Action string
	service.Pagination
}

type catalogPage struct {
	Title   string
	Refresh bool
	View    *state.CatalogView
	Pager   pager
}

type browserPage struct {
	Title   string
	Refresh bool
	View    *state.BrowserView
	Pager   pager
}

type messagePage struct {
	Title     string
	Refresh   bool
	Message   string
	RequestID string
}

func (s *Server) newCatalogPage(view *state.CatalogView) catalogPage {
	return catalogPage{
		Title:   "Our Products",
		Refresh: view.Status == state.StatusLoading || view.DetailsLoading,
		View:    view,
		Pager: pager{
			Action:     "/catalog/" + view.ID + "/page",
			Pagination: service.NewPagination(view.CurrentPage, view.TotalPages, s.pageWindow),
		},
	}
}

func (s *Server) newBrowserPage(view *state.BrowserView) browserPage {
	return browserPage{
		Title:   "Product List",
		Refresh: view.Status == state.StatusLoading,
		View:    view,
		Pager: pager{
			Action:     "/details/" + view.ID + "/page",
			Pagination: service.NewPagination(view.CurrentPage, view.TotalPages, s.pageWindow),
		},
	}
}
