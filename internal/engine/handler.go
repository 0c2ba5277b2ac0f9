package engine

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aeroform-backend/internal/forms"
	"aeroform-backend/internal/instrument"
	"aeroform-backend/internal/store"
)

// Handler serves the respondent-facing form endpoints: fetching a
// definition, evaluating in-progress answers, and submitting.
type Handler struct {
	store     *store.Store
	registry  *forms.Registry
	evaluator *Evaluator
	inst      instrument.Instrumenter
}

func NewHandler(s *store.Store, reg *forms.Registry, inst instrument.Instrumenter) *Handler {
	if inst == nil {
		inst = &instrument.NoopInstrumenter{}
	}
	return &Handler{
		store:     s,
		registry:  reg,
		evaluator: NewEvaluator(),
		inst:      inst,
	}
}

// List handles GET /api/forms, the forms currently accepting submissions.
func (h *Handler) List(c *fiber.Ctx) error {
	open := h.registry.Open()
	summaries := make([]fiber.Map, 0, len(open))
	for _, f := range open {
		summaries = append(summaries, fiber.Map{
			"id":          f.ID,
			"title":       f.Title,
			"description": f.Description,
		})
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// GetByID handles GET /api/forms/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	form, err := h.resolveForm(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": form})
}

type evaluateRequest struct {
	Answers      AnswerMap `json:"answers"`
	ChangedField string    `json:"changed_field,omitempty"`
}

// Evaluate handles POST /api/forms/:id/evaluate: recompute visibility,
// requiredness and calculated values for the respondent's current
// answers, plus any section jump triggered by the changed field.
func (h *Handler) Evaluate(c *fiber.Ctx) error {
	form, err := h.resolveForm(c)
	if err != nil {
		return err
	}

	var body evaluateRequest
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	_, span := h.inst.StartSpan(c.Context(), "engine", "form.evaluate")
	defer span.End()
	span.SetForm(form.ID, "")

	var res *Result
	if body.ChangedField != "" {
		res = h.evaluator.EvaluateChange(form, body.Answers, body.ChangedField)
	} else {
		res = h.evaluator.Evaluate(form, body.Answers)
	}

	if res.CascadeCapped {
		// Authoring defect (likely cyclic calculations); never a
		// respondent-facing failure.
		log.Printf("WARN: form %s: calculation cascade hit the pass cap, rules may be cyclic", form.ID)
		span.SetMetadata("cascade_capped", true)
	}
	span.SetStatus("ok")

	return c.JSON(fiber.Map{"data": res})
}

type submitRequest struct {
	Answers AnswerMap `json:"answers"`
}

// Submit handles POST /api/forms/:id/submissions. The required-field
// check is recomputed here over the final answers; client state is not
// trusted.
func (h *Handler) Submit(c *fiber.Ctx) error {
	form, err := h.resolveForm(c)
	if err != nil {
		return err
	}
	if !form.AllowSubmissions {
		return SubmissionsClosedError(form.ID)
	}

	var body submitRequest
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	if body.Answers == nil {
		body.Answers = AnswerMap{}
	}

	ctx, span := h.inst.StartSpan(c.Context(), "engine", "form.submit")
	defer span.End()
	span.SetForm(form.ID, "")

	if details := h.evaluator.CheckRequired(form, body.Answers); len(details) > 0 {
		span.SetStatus("error")
		return ValidationError(details)
	}

	subID := uuid.New().String()
	answersJSON, err := json.Marshal(body.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	var respondent any
	if user := getUser(c); user != nil {
		respondent = user.ID
	}

	p := h.store.Dialect.Placeholder
	insertSQL := fmt.Sprintf(
		`INSERT INTO _submissions (id, form_id, respondent_id, answers) VALUES (%s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4))
	if _, err := store.Exec(c.Context(), h.store.DB, insertSQL,
		subID, form.ID, respondent, string(answersJSON)); err != nil {
		return fmt.Errorf("save submission %s: %w", form.ID, err)
	}

	span.SetForm(form.ID, subID)
	span.SetStatus("ok")
	h.inst.EmitBusinessEvent(ctx, "submission.created", form.ID, subID, nil)

	return c.Status(201).JSON(fiber.Map{"data": fiber.Map{
		"id":      subID,
		"form_id": form.ID,
	}})
}

func (h *Handler) resolveForm(c *fiber.Ctx) (*forms.Form, error) {
	id := c.Params("id")
	form := h.registry.Get(id)
	if form == nil {
		return nil, UnknownFormError(id)
	}
	return form, nil
}

func getUser(c *fiber.Ctx) *forms.UserContext {
	user, _ := c.Locals("user").(*forms.UserContext)
	return user
}
