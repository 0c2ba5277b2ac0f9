package engine

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"aeroform-backend/internal/forms"
)

// testApp wires the form routes with the same AppError-aware error
// handler the server uses. The store stays nil; these tests only cover
// paths that never reach the database.
func testApp(reg *forms.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
			}
			return c.Status(500).JSON(ErrorResponse{
				Error: &AppError{Code: "INTERNAL_ERROR", Message: "Internal server error"},
			})
		},
	})
	RegisterFormRoutes(app, NewHandler(nil, reg, nil))
	return app
}

func openLicenseForm() *forms.Form {
	f := licenseForm()
	f.AllowSubmissions = true
	return f
}

func TestHandler_UnknownFormReturns404(t *testing.T) {
	reg := forms.NewRegistry()
	reg.Put(openLicenseForm())
	app := testApp(reg)

	req, _ := http.NewRequest("GET", "/api/forms/nonexistent", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if errResp.Error.Code != "UNKNOWN_FORM" {
		t.Fatalf("expected UNKNOWN_FORM, got %s", errResp.Error.Code)
	}
	if !strings.Contains(errResp.Error.Message, "nonexistent") {
		t.Fatalf("expected message to name the form id, got: %s", errResp.Error.Message)
	}
}

func TestHandler_ListShowsOnlyOpenForms(t *testing.T) {
	reg := forms.NewRegistry()
	open := openLicenseForm()
	closed := licenseForm()
	closed.ID = "closed-form"
	reg.Load([]*forms.Form{open, closed})
	app := testApp(reg)

	req, _ := http.NewRequest("GET", "/api/forms", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].ID != open.ID {
		t.Fatalf("expected only the open form, got %v", payload.Data)
	}
}

func TestHandler_EvaluateEndpoint(t *testing.T) {
	reg := forms.NewRegistry()
	reg.Put(openLicenseForm())
	app := testApp(reg)

	body := strings.NewReader(`{"answers": {"is_pilot": "yes"}}`)
	req, _ := http.NewRequest("POST", "/api/forms/pilot-registration/evaluate", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var payload struct {
		Data struct {
			Fields map[string]ElementState `json:"fields"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	st, ok := payload.Data.Fields["license_no"]
	if !ok {
		t.Fatal("expected license_no in field states")
	}
	if !st.Visible || !st.Required {
		t.Fatalf("expected license_no visible and required, got %+v", st)
	}
}

func TestHandler_EvaluateWithChangedFieldReturnsJump(t *testing.T) {
	form := &forms.Form{
		ID:               "nav",
		Title:            "Nav",
		AllowSubmissions: true,
		Sections: []forms.Section{
			{ID: "s1", Fields: []forms.Field{
				{ID: "experience", Label: "Experience", Type: forms.FieldSelect, Options: forms.OptionList{"new", "veteran"}},
			}, Rules: []forms.ConditionalRule{
				{
					When: forms.Condition{FieldID: "experience", Operator: forms.OpIs, Value: "veteran"},
					Then: forms.Action{Kind: forms.ActionJumpTo, Target: "s2"},
				},
			}},
			{ID: "s2", Fields: []forms.Field{{ID: "f2", Label: "F2", Type: forms.FieldText}}},
		},
	}
	reg := forms.NewRegistry()
	reg.Put(form)
	app := testApp(reg)

	body := strings.NewReader(`{"answers": {"experience": "veteran"}, "changed_field": "experience"}`)
	req, _ := http.NewRequest("POST", "/api/forms/nav/evaluate", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	raw, _ := io.ReadAll(resp.Body)
	var payload struct {
		Data struct {
			JumpTo string `json:"jump_to"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Data.JumpTo != "s2" {
		t.Fatalf("expected jump_to=s2, got %q", payload.Data.JumpTo)
	}
}

func TestHandler_SubmitClosedFormReturns403(t *testing.T) {
	reg := forms.NewRegistry()
	reg.Put(licenseForm()) // AllowSubmissions false
	app := testApp(reg)

	body := strings.NewReader(`{"answers": {}}`)
	req, _ := http.NewRequest("POST", "/api/forms/pilot-registration/submissions", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if errResp.Error.Code != "SUBMISSIONS_CLOSED" {
		t.Fatalf("expected SUBMISSIONS_CLOSED, got %s", errResp.Error.Code)
	}
}

func TestHandler_SubmitMissingRequiredReturns422(t *testing.T) {
	reg := forms.NewRegistry()
	reg.Put(openLicenseForm())
	app := testApp(reg)

	body := strings.NewReader(`{"answers": {"is_pilot": "yes"}}`)
	req, _ := http.NewRequest("POST", "/api/forms/pilot-registration/submissions", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if errResp.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", errResp.Error.Code)
	}
	if len(errResp.Error.Details) != 1 {
		t.Fatalf("expected 1 detail, got %v", errResp.Error.Details)
	}
	d := errResp.Error.Details[0]
	if d.Field != "license_no" || d.Rule != "required" {
		t.Fatalf("unexpected detail: %+v", d)
	}
}
