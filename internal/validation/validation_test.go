package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fr0stylo/issuedash/internal/app/domain"
)

func fieldErrors(t *testing.T, err error) domain.ValidationErrors {
	t.Helper()
	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
	}
	return verrs
}

func TestIssueID(t *testing.T) {
	t.Parallel()

	valid := map[string]int64{"1": 1, "42": 42, "007": 7}
	for raw, want := range valid {
		got, err := IssueID(raw)
		if err != nil {
			t.Fatalf("IssueID(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("IssueID(%q) got=%d want=%d", raw, got, want)
		}
	}

	for _, raw := range []string{"", "0", "-3", "abc", "1.5", "0x10", "12abc", " 5", "5 ", " 7 ", "+5", "\t9"} {
		_, err := IssueID(raw)
		if !fieldErrors(t, err).Has("iid") {
			t.Fatalf("IssueID(%q) expected iid error", raw)
		}
	}
}

func TestStatusUpdate(t *testing.T) {
	t.Parallel()

	for _, event := range []string{"close", "reopen"} {
		input := StatusUpdate{StateEvent: event}
		if err := input.Validate(); err != nil {
			t.Fatalf("StatusUpdate(%q) error = %v", event, err)
		}
		if string(input.Event()) != event {
			t.Fatalf("unexpected event: %s", input.Event())
		}
	}

	for _, event := range []string{"", "closed", "CLOSE", "delete", " close", "reopen\n", "\tclose\t"} {
		input := StatusUpdate{StateEvent: event}
		if !fieldErrors(t, input.Validate()).Has("state_event") {
			t.Fatalf("StatusUpdate(%q) expected state_event error", event)
		}
	}
}

func TestCommentCreate(t *testing.T) {
	t.Parallel()

	input := CommentCreate{Comment: "  looks good  "}
	if err := input.Validate(); err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	if input.Comment != "looks good" {
		t.Fatalf("expected trimmed comment, got %q", input.Comment)
	}

	for _, body := range []string{"", "   ", "\n\t"} {
		input := CommentCreate{Comment: body}
		if !fieldErrors(t, input.Validate()).Has("comment") {
			t.Fatalf("CommentCreate(%q) expected comment error", body)
		}
	}
}

func TestIssueForm(t *testing.T) {
	t.Parallel()

	ok := IssueForm{Title: strings.Repeat("é", MaxTitleLength)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("title at limit rejected: %v", err)
	}

	long := IssueForm{Title: strings.Repeat("a", MaxTitleLength+1), Description: "anything"}
	verrs := fieldErrors(t, long.Validate())
	if !verrs.Has("title") {
		t.Fatalf("expected title error, got %+v", verrs)
	}
	if verrs.Has("description") {
		t.Fatalf("description must be optional: %+v", verrs)
	}

	blank := IssueForm{Title: "   "}
	if !fieldErrors(t, blank.Validate()).Has("title") {
		t.Fatalf("expected title error for blank title")
	}

	form := IssueForm{Title: " Crash on save ", Description: "trace"}
	if err := form.Validate(); err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	if draft := form.Draft(); draft.Title != "Crash on save" || draft.Description != "trace" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	update := form.Update()
	if update.Title == nil || *update.Title != "Crash on save" || update.StateEvent != nil {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestListQueryOptions(t *testing.T) {
	t.Parallel()

	opts, err := ListQuery{}.Options()
	if err != nil {
		t.Fatalf("empty query error = %v", err)
	}
	if opts != (domain.ListIssuesOptions{}) {
		t.Fatalf("expected unset options, got %+v", opts)
	}

	opts, err = ListQuery{Page: "2", PerPage: "50", OrderBy: "updated_at", Sort: "desc"}.Options()
	if err != nil {
		t.Fatalf("valid query error = %v", err)
	}
	want := domain.ListIssuesOptions{OrderBy: "updated_at", Sort: "desc", Page: 2, PerPage: 50}
	if opts != want {
		t.Fatalf("unexpected options: got=%+v want=%+v", opts, want)
	}

	_, err = ListQuery{Page: "0", PerPage: "500", OrderBy: "author", Sort: "up"}.Options()
	verrs := fieldErrors(t, err)
	for _, field := range []string{"page", "per_page", "order_by", "sort"} {
		if !verrs.Has(field) {
			t.Fatalf("expected %s error, got %+v", field, verrs)
		}
	}

	_, err = ListQuery{Page: "two"}.Options()
	if !fieldErrors(t, err).Has("page") {
		t.Fatalf("expected page error for non-integer")
	}
}

func TestBindFailure(t *testing.T) {
	t.Parallel()

	var input StatusUpdate
	decodeErr := json.Unmarshal([]byte(`{"state_event":1}`), &input)
	verrs := fieldErrors(t, BindFailure(fmt.Errorf("bind: %w", decodeErr), "comment"))
	if len(verrs) != 1 || verrs[0].Field != "state_event" || verrs[0].Message != "must be a string" {
		t.Fatalf("unexpected errors: %+v", verrs)
	}

	var form IssueForm
	decodeErr = json.Unmarshal([]byte(`{"title":["x"]}`), &form)
	if !fieldErrors(t, BindFailure(decodeErr, "description")).Has("title") {
		t.Fatalf("expected title error for array value")
	}

	verrs = fieldErrors(t, BindFailure(errors.New("unexpected EOF"), "title"))
	if len(verrs) != 1 || verrs[0].Field != "title" {
		t.Fatalf("expected fallback field, got %+v", verrs)
	}

	if BindFailure(nil, "title") != nil {
		t.Fatalf("expected nil for nil error")
	}
}
