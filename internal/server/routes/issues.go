package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/issuedash/internal/app/domain"
	appservices "github.com/fr0stylo/issuedash/internal/app/services"
	"github.com/fr0stylo/issuedash/internal/validation"
	"github.com/fr0stylo/issuedash/views/pages"
)

// IssueRoutes serves the issue explorer, detail and form pages.
type IssueRoutes struct {
	issues *appservices.IssueService
}

// NewIssueRoutes constructs issue routes.
func NewIssueRoutes(issues *appservices.IssueService) *IssueRoutes {
	return &IssueRoutes{issues: issues}
}

// RegisterRoutes registers issue routes behind RequireAuth.
func (r *IssueRoutes) RegisterRoutes(s *echo.Echo) {
	authed := s.Group("/issues", RequireAuth)

	authed.GET("", r.handleExplorer)
	authed.GET("/expanded/:iid", r.handleExpanded)
	authed.PUT("/update-issue-status/:iid", r.handleUpdateStatus)
	authed.POST("/add-comment/:iid", r.handleAddComment)
	authed.GET("/create", r.handleCreateForm)
	authed.POST("/create", r.handleCreate)
	authed.GET("/edit/:iid", r.handleEditForm)
	authed.PUT("/edit/:iid", r.handleEdit)
}

type commentResponse struct {
	ID        int64       `json:"id"`
	IID       int64       `json:"iid"`
	Note      string      `json:"note"`
	Author    domain.User `json:"author"`
	CreatedAt string      `json:"created_at"`
}

func (r *IssueRoutes) handleExplorer(c echo.Context) error {
	query := validation.ListQuery{
		Page:    c.QueryParam("page"),
		PerPage: c.QueryParam("per_page"),
		OrderBy: c.QueryParam("order_by"),
		Sort:    c.QueryParam("sort"),
	}
	opts, err := query.Options()
	if err != nil {
		return err
	}
	explorer, err := r.issues.Explorer(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "", pages.Explorer(layoutFor(c), explorer))
}

func (r *IssueRoutes) handleExpanded(c echo.Context) error {
	iid, err := validation.IssueID(c.Param("iid"))
	if err != nil {
		return err
	}
	detail, err := r.issues.Detail(c.Request().Context(), iid)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "", pages.Expanded(layoutFor(c), detail))
}

func (r *IssueRoutes) handleUpdateStatus(c echo.Context) error {
	iid, err := validation.IssueID(c.Param("iid"))
	if err != nil {
		return err
	}
	var input validation.StatusUpdate
	if err := c.Bind(&input); err != nil {
		return validation.BindFailure(err, "state_event")
	}
	if err := input.Validate(); err != nil {
		return err
	}
	r.issues.UpdateStatus(c.Request().Context(), iid, input.Event())
	return c.NoContent(http.StatusNoContent)
}

func (r *IssueRoutes) handleAddComment(c echo.Context) error {
	iid, err := validation.IssueID(c.Param("iid"))
	if err != nil {
		return err
	}
	var input validation.CommentCreate
	if err := c.Bind(&input); err != nil {
		return validation.BindFailure(err, "comment")
	}
	if err := input.Validate(); err != nil {
		return err
	}
	comment, err := r.issues.AddComment(c.Request().Context(), iid, input.Comment)
	if err != nil {
		return err
	}
	resp := commentResponse{
		ID:     comment.ID,
		IID:    iid,
		Note:   comment.Body,
		Author: comment.Author,
	}
	if !comment.CreatedAt.IsZero() {
		resp.CreatedAt = comment.CreatedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (r *IssueRoutes) handleCreateForm(c echo.Context) error {
	return c.Render(http.StatusOK, "", pages.IssueCreate(layoutFor(c), domain.IssueForm{}, validation.MaxTitleLength))
}

func (r *IssueRoutes) handleCreate(c echo.Context) error {
	var input validation.IssueForm
	if err := c.Bind(&input); err != nil {
		return validation.BindFailure(err, "title")
	}
	if err := input.Validate(); err != nil {
		if form, ok := formWithErrors(c, 0, input, err); ok {
			return c.Render(http.StatusBadRequest, "", pages.IssueCreate(layoutFor(c), form, validation.MaxTitleLength))
		}
		return err
	}
	if _, err := r.issues.Create(c.Request().Context(), input.Draft()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/issues/create")
}

func (r *IssueRoutes) handleEditForm(c echo.Context) error {
	iid, err := validation.IssueID(c.Param("iid"))
	if err != nil {
		return err
	}
	form, err := r.issues.EditForm(c.Request().Context(), iid)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "", pages.IssueEdit(layoutFor(c), form, validation.MaxTitleLength))
}

func (r *IssueRoutes) handleEdit(c echo.Context) error {
	iid, err := validation.IssueID(c.Param("iid"))
	if err != nil {
		return err
	}
	var input validation.IssueForm
	if err := c.Bind(&input); err != nil {
		return validation.BindFailure(err, "title")
	}
	if err := input.Validate(); err != nil {
		if form, ok := formWithErrors(c, iid, input, err); ok {
			return c.Render(http.StatusBadRequest, "", pages.IssueEdit(layoutFor(c), form, validation.MaxTitleLength))
		}
		return err
	}
	if _, err := r.issues.Edit(c.Request().Context(), iid, input.Update()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/issues")
}

// formWithErrors prepares a form re-render for browser submissions. JSON
// clients get the structured error body instead.
func formWithErrors(c echo.Context, iid int64, input validation.IssueForm, err error) (domain.IssueForm, bool) {
	var verrs domain.ValidationErrors
	if wantsJSON(c) || !errors.As(err, &verrs) {
		return domain.IssueForm{}, false
	}
	return domain.IssueForm{
		IID:         iid,
		Title:       input.Title,
		Description: input.Description,
		Errors:      verrs,
	}, true
}
