// Package pages renders the full HTML pages served by the issue routes.
package pages

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

//go:embed templates/*.html
var files embed.FS

var templates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"hasError": func(errs domain.ValidationErrors, field string) bool { return errs.Has(field) },
}).ParseFS(files, "templates/*.html"))

// Layout is the chrome shared by every page.
type Layout struct {
	Title     string
	CSRFToken string
	User      string
	CSS       string
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

type landingView struct {
	Layout
	OAuthEnabled bool
}

// Landing is the sign-in page.
func Landing(layout Layout, oauthEnabled bool) templ.Component {
	layout.Title = "issuedash"
	layout.CSS = "/public/css/index.css"
	return page("landing.html", landingView{Layout: layout, OAuthEnabled: oauthEnabled})
}

// Failure is shown when the OAuth exchange fails.
func Failure(layout Layout) templ.Component {
	layout.Title = "Sign-in failed"
	layout.CSS = "/public/css/index.css"
	return page("failure.html", struct{ Layout }{layout})
}

type explorerView struct {
	Layout
	domain.IssueExplorer
}

// PageURL links to another page of the explorer, keeping the current ordering.
func (v explorerView) PageURL(page int64) string {
	query := url.Values{}
	query.Set("page", strconv.FormatInt(page, 10))
	if v.Pagination.PerPage > 0 {
		query.Set("per_page", strconv.FormatInt(v.Pagination.PerPage, 10))
	}
	if v.OrderBy != "" {
		query.Set("order_by", v.OrderBy)
	}
	if v.Sort != "" {
		query.Set("sort", v.Sort)
	}
	return "/issues?" + query.Encode()
}

// PreviousPage is the page number before the current one.
func (v explorerView) PreviousPage() int64 { return v.Pagination.Page - 1 }

// NextPage is the page number after the current one.
func (v explorerView) NextPage() int64 { return v.Pagination.Page + 1 }

// Explorer lists one page of issues.
func Explorer(layout Layout, explorer domain.IssueExplorer) templ.Component {
	layout.Title = "Issues"
	layout.CSS = "/public/css/issues-explorer.css"
	return page("explorer.html", explorerView{Layout: layout, IssueExplorer: explorer})
}

type expandedView struct {
	Layout
	domain.IssueDetail
}

// Expanded shows one issue with its comments.
func Expanded(layout Layout, detail domain.IssueDetail) templ.Component {
	layout.Title = detail.Issue.Title
	layout.CSS = "/public/css/expanded-issue.css"
	return page("expanded.html", expandedView{Layout: layout, IssueDetail: detail})
}

type formView struct {
	Layout
	domain.IssueForm
	Action         string
	Method         string
	MaxTitleLength int
}

// IssueCreate is the new issue form.
func IssueCreate(layout Layout, form domain.IssueForm, maxTitle int) templ.Component {
	layout.Title = "New issue"
	layout.CSS = "/public/css/issue-form.css"
	return page("issue_form.html", formView{Layout: layout, IssueForm: form, Action: "/issues/create", Method: "POST", MaxTitleLength: maxTitle})
}

// IssueEdit is the edit form for an existing issue.
func IssueEdit(layout Layout, form domain.IssueForm, maxTitle int) templ.Component {
	layout.Title = "Edit issue"
	layout.CSS = "/public/css/issue-form.css"
	action := "/issues/edit/" + strconv.FormatInt(form.IID, 10)
	return page("issue_form.html", formView{Layout: layout, IssueForm: form, Action: action, Method: "PUT", MaxTitleLength: maxTitle})
}

type errorView struct {
	Layout
	StatusCode int
	Message    string
}

// Error renders a failed request.
func Error(layout Layout, statusCode int, message string) templ.Component {
	layout.Title = strconv.Itoa(statusCode)
	layout.CSS = "/public/css/error.css"
	return page("error.html", errorView{Layout: layout, StatusCode: statusCode, Message: message})
}
