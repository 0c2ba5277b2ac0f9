package admin

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aeroform-backend/internal/engine"
	"aeroform-backend/internal/forms"
	"aeroform-backend/internal/store"
)

// Handler implements the builder/save flow: form owners and admins
// create and edit form definitions, and read the submissions that came
// in. Definitions are persisted as one JSON aggregate per form.
type Handler struct {
	store    *store.Store
	registry *forms.Registry
}

func NewHandler(s *store.Store, reg *forms.Registry) *Handler {
	return &Handler{store: s, registry: reg}
}

func RegisterBuilderRoutes(app *fiber.App, h *Handler, mw ...fiber.Handler) {
	grp := app.Group("/api/_admin/forms")
	for _, m := range mw {
		grp.Use(m)
	}

	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Post("/", h.Create)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
	grp.Get("/:id/submissions", h.ListSubmissions)
}

// List handles GET /api/_admin/forms. Admins see every form; owners see
// their own.
func (h *Handler) List(c *fiber.Ctx) error {
	user := getUser(c)
	if user == nil {
		return engine.UnauthorizedError("Missing auth token")
	}

	var out []*forms.Form
	for _, f := range h.registry.All() {
		if user.CanManage(f) {
			out = append(out, f)
		}
	}
	if out == nil {
		out = []*forms.Form{}
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /api/_admin/forms/:id
func (h *Handler) Get(c *fiber.Ctx) error {
	form, err := h.resolveManaged(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": form})
}

// Create handles POST /api/_admin/forms. Save is refused with the full
// issue list when the definition doesn't validate.
func (h *Handler) Create(c *fiber.Ctx) error {
	user := getUser(c)
	if user == nil {
		return engine.UnauthorizedError("Missing auth token")
	}

	var form forms.Form
	if err := c.BodyParser(&form); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	form.ID = uuid.New().String()
	form.OwnerID = user.ID
	assignIDs(&form)

	if issues := forms.Validate(&form); len(issues) > 0 {
		return engine.ValidationError(issueDetails(issues))
	}

	if err := h.insertForm(c, &form); err != nil {
		return err
	}
	h.registry.Put(&form)

	return c.Status(201).JSON(fiber.Map{"data": form})
}

// Update handles PUT /api/_admin/forms/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	existing, err := h.resolveManaged(c)
	if err != nil {
		return err
	}

	var form forms.Form
	if err := c.BodyParser(&form); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	form.ID = existing.ID
	form.OwnerID = existing.OwnerID
	assignIDs(&form)

	if issues := forms.Validate(&form); len(issues) > 0 {
		return engine.ValidationError(issueDetails(issues))
	}

	defJSON, err := json.Marshal(&form)
	if err != nil {
		return fmt.Errorf("encode form definition: %w", err)
	}

	p := h.store.Dialect.Placeholder
	updateSQL := fmt.Sprintf(
		"UPDATE _forms SET title = %s, definition = %s, updated_at = %s WHERE id = %s",
		p(1), p(2), h.store.Dialect.NowExpr(), p(3))
	affected, err := store.Exec(c.Context(), h.store.DB, updateSQL, form.Title, string(defJSON), form.ID)
	if err != nil {
		return fmt.Errorf("update form %s: %w", form.ID, err)
	}
	if affected == 0 {
		return engine.NotFoundError("form", form.ID)
	}

	h.registry.Put(&form)
	return c.JSON(fiber.Map{"data": form})
}

// Delete handles DELETE /api/_admin/forms/:id. Submissions go with the
// form (FK cascade).
func (h *Handler) Delete(c *fiber.Ctx) error {
	form, err := h.resolveManaged(c)
	if err != nil {
		return err
	}

	p := h.store.Dialect.Placeholder
	affected, err := store.Exec(c.Context(), h.store.DB,
		fmt.Sprintf("DELETE FROM _forms WHERE id = %s", p(1)), form.ID)
	if err != nil {
		return fmt.Errorf("delete form %s: %w", form.ID, err)
	}
	if affected == 0 {
		return engine.NotFoundError("form", form.ID)
	}

	h.registry.Remove(form.ID)
	return c.JSON(fiber.Map{"data": fiber.Map{"id": form.ID}})
}

// ListSubmissions handles GET /api/_admin/forms/:id/submissions
func (h *Handler) ListSubmissions(c *fiber.Ctx) error {
	form, err := h.resolveManaged(c)
	if err != nil {
		return err
	}

	p := h.store.Dialect.Placeholder
	rows, err := store.QueryRows(c.Context(), h.store.DB,
		fmt.Sprintf("SELECT id, respondent_id, answers, created_at FROM _submissions WHERE form_id = %s ORDER BY created_at DESC", p(1)),
		form.ID)
	if err != nil {
		return fmt.Errorf("list submissions %s: %w", form.ID, err)
	}

	for _, row := range rows {
		row["answers"] = decodeAnswers(row["answers"])
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *Handler) insertForm(c *fiber.Ctx, form *forms.Form) error {
	defJSON, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("encode form definition: %w", err)
	}

	p := h.store.Dialect.Placeholder
	insertSQL := fmt.Sprintf(
		"INSERT INTO _forms (id, title, definition, owner_id) VALUES (%s, %s, %s, %s)",
		p(1), p(2), p(3), p(4))
	if _, err := store.Exec(c.Context(), h.store.DB, insertSQL,
		form.ID, form.Title, string(defJSON), form.OwnerID); err != nil {
		return fmt.Errorf("insert form: %w", h.store.Dialect.MapError(err))
	}
	return nil
}

// resolveManaged resolves the :id param and checks the caller may manage
// that form.
func (h *Handler) resolveManaged(c *fiber.Ctx) (*forms.Form, error) {
	user := getUser(c)
	if user == nil {
		return nil, engine.UnauthorizedError("Missing auth token")
	}
	id := c.Params("id")
	form := h.registry.Get(id)
	if form == nil {
		return nil, engine.UnknownFormError(id)
	}
	if !user.CanManage(form) {
		return nil, engine.ForbiddenError("Not your form")
	}
	return form, nil
}

// assignIDs gives stable uuids to sections and fields the builder sent
// without one. Rule targets reference these ids, so existing ids are
// never regenerated.
func assignIDs(f *forms.Form) {
	for si := range f.Sections {
		if f.Sections[si].ID == "" {
			f.Sections[si].ID = uuid.New().String()
		}
		for fi := range f.Sections[si].Fields {
			if f.Sections[si].Fields[fi].ID == "" {
				f.Sections[si].Fields[fi].ID = uuid.New().String()
			}
		}
	}
}

func issueDetails(issues []forms.Issue) []engine.ErrorDetail {
	details := make([]engine.ErrorDetail, len(issues))
	for i, issue := range issues {
		details[i] = engine.ErrorDetail{
			Field:   issue.Path,
			Rule:    issue.Code,
			Message: issue.Message,
		}
	}
	return details
}

func decodeAnswers(v any) any {
	var raw string
	switch val := v.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return v
	}
	var answers map[string]any
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return raw
	}
	return answers
}

func getUser(c *fiber.Ctx) *forms.UserContext {
	user, _ := c.Locals("user").(*forms.UserContext)
	return user
}
