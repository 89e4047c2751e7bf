package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

func render(t *testing.T, name string, render func(ctx context.Context, buf *bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render(context.Background(), &buf); err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	return buf.String()
}

func TestExplorerRendersRowsAndPagination(t *testing.T) {
	t.Parallel()

	explorer := domain.IssueExplorer{
		Issues: []domain.IssueRow{
			{IID: 7, Title: "<b>Broken</b>", State: domain.IssueStateOpened, CreatedAt: "05/03/24, 09:07", Author: "alice"},
			{IID: 8, Title: "Done", State: domain.IssueStateClosed, Author: "bob"},
		},
		Pagination: domain.Pagination{Page: 2, PerPage: 20, Total: 60, TotalPages: 3},
		OrderBy:    "updated_at",
	}
	html := render(t, "explorer", func(ctx context.Context, buf *bytes.Buffer) error {
		return Explorer(Layout{User: "alice", CSRFToken: "tok"}, explorer).Render(ctx, buf)
	})

	for _, want := range []string{
		`id="main-explorer"`,
		`class="issue-list"`,
		`/issues/expanded/7`,
		`status-closed`,
		`&lt;b&gt;Broken&lt;/b&gt;`,
		`content="tok"`,
		`/issues?order_by=updated_at&amp;page=1&amp;per_page=20`,
		`/issues?order_by=updated_at&amp;page=3&amp;per_page=20`,
		`/public/js/client.js`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in explorer html:\n%s", want, html)
		}
	}
}

func TestExpandedRendersCommentsAndStatusForm(t *testing.T) {
	t.Parallel()

	detail := domain.IssueDetail{
		Issue:       domain.IssueRow{IID: 3, Title: "Crash", State: domain.IssueStateClosed, Author: "alice"},
		Description: "Steps",
		Comments:    []domain.CommentView{{Author: "bob", CreatedAt: "01/01/24, 10:00", Body: "newest"}},
	}
	html := render(t, "expanded", func(ctx context.Context, buf *bytes.Buffer) error {
		return Expanded(Layout{User: "alice"}, detail).Render(ctx, buf)
	})

	for _, want := range []string{`id="main-expanded"`, `expanded-btns-container`, `comments-container`, `value="reopen"`, `bob, 01/01/24, 10:00`} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in expanded html", want)
		}
	}
}

func TestIssueFormsRenderTitlesAndErrors(t *testing.T) {
	t.Parallel()

	form := domain.IssueForm{
		IID:    4,
		Title:  "Old title",
		Errors: domain.ValidationErrors{{Field: "title", Message: "must not be empty"}},
	}
	html := render(t, "edit", func(ctx context.Context, buf *bytes.Buffer) error {
		return IssueEdit(Layout{User: "alice"}, form, 255).Render(ctx, buf)
	})
	for _, want := range []string{`<title>Edit issue</title>`, `value="Old title"`, `action="/issues/edit/4"`, `name="_method" value="PUT"`, `field-error`, `maxlength="255"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in edit html", want)
		}
	}

	html = render(t, "create", func(ctx context.Context, buf *bytes.Buffer) error {
		return IssueCreate(Layout{User: "alice"}, domain.IssueForm{}, 255).Render(ctx, buf)
	})
	if strings.Contains(html, `name="_method"`) || strings.Contains(html, "field-error") {
		t.Fatalf("create form must not carry method override or errors")
	}
}

func TestLandingAndErrorPages(t *testing.T) {
	t.Parallel()

	html := render(t, "landing", func(ctx context.Context, buf *bytes.Buffer) error {
		return Landing(Layout{}, true).Render(ctx, buf)
	})
	if !strings.Contains(html, `/auth/gitlab`) || strings.Contains(html, "client.js") {
		t.Fatalf("unexpected landing html:\n%s", html)
	}

	html = render(t, "error", func(ctx context.Context, buf *bytes.Buffer) error {
		return Error(Layout{}, 404, "Not Found").Render(ctx, buf)
	})
	if !strings.Contains(html, "<h1>404</h1>") || !strings.Contains(html, "Not Found") {
		t.Fatalf("unexpected error html:\n%s", html)
	}

	html = render(t, "failure", func(ctx context.Context, buf *bytes.Buffer) error {
		return Failure(Layout{}).Render(ctx, buf)
	})
	if !strings.Contains(html, "Sign-in failed") {
		t.Fatalf("unexpected failure html:\n%s", html)
	}
}
