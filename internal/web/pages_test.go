package web

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

func renderComponent(t *testing.T, render func(ctx context.Context, w *bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render(context.Background(), &buf); err != nil {
		t.Fatalf("render error = %v", err)
	}
	return buf.String()
}

func TestErrorAlert(t *testing.T) {
	html := renderComponent(t, func(ctx context.Context, w *bytes.Buffer) error {
		return ErrorAlert("The file is not valid", "Re-save as CSV", "CSV001").Render(ctx, w)
	})

	if !strings.Contains(html, "The file is not valid") {
		t.Error("alert missing message")
	}
	if !strings.Contains(html, "Re-save as CSV") {
		t.Error("alert missing action")
	}
	if !strings.Contains(html, "CSV001") {
		t.Error("alert missing code")
	}
	if !strings.Contains(html, `role="alert"`) {
		t.Error("alert missing role attribute")
	}
}

func TestErrorAlert_EscapesHTML(t *testing.T) {
	html := renderComponent(t, func(ctx context.Context, w *bytes.Buffer) error {
		return ErrorAlert(`<script>alert("x")</script>`, "", "ERR000").Render(ctx, w)
	})

	if strings.Contains(html, "<script>") {
		t.Errorf("message not escaped: %q", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("expected escaped markup: %q", html)
	}
}

func TestErrorAlert_OmitsEmptyAction(t *testing.T) {
	html := renderComponent(t, func(ctx context.Context, w *bytes.Buffer) error {
		return ErrorAlert("message", "", "ERR000").Render(ctx, w)
	})

	if strings.Contains(html, "<p>") {
		t.Errorf("empty action should not render a paragraph: %q", html)
	}
}

func TestDashboardComponent(t *testing.T) {
	groups := []FormatGroup{
		{
			Name: "Mailchimp",
			Formats: []*core.SourceFormat{
				{Key: "mailchimp", Name: "Mailchimp audience export"},
			},
		},
		{
			Name: "Generic",
			Formats: []*core.SourceFormat{
				{Key: "generic", Name: "Generic contact CSV"},
			},
		},
	}

	html := renderComponent(t, func(ctx context.Context, w *bytes.Buffer) error {
		return Dashboard(groups, true).Render(ctx, w)
	})

	if !strings.Contains(html, `<optgroup label="Mailchimp">`) {
		t.Error("missing Mailchimp optgroup")
	}
	if !strings.Contains(html, `<option value="generic">Generic contact CSV</option>`) {
		t.Error("missing generic option")
	}
	if !strings.Contains(html, "Recent conversions") {
		t.Error("history section missing when enabled")
	}
	if !strings.Contains(html, "</html>") {
		t.Error("page is not a complete document")
	}
}

func TestDashboardComponent_NoHistory(t *testing.T) {
	html := renderComponent(t, func(ctx context.Context, w *bytes.Buffer) error {
		return Dashboard(nil, false).Render(ctx, w)
	})

	if strings.Contains(html, "Recent conversions") {
		t.Error("history section rendered when disabled")
	}
}

func TestDashboardComponent_EscapesFormatNames(t *testing.T) {
	groups := []FormatGroup{
		{
			Name: `<img src=x>`,
			Formats: []*core.SourceFormat{
				{Key: "k", Name: `<b>bold</b>`},
			},
		},
	}

	html := renderComponent(t, func(ctx context.Context, w *bytes.Buffer) error {
		return Dashboard(groups, false).Render(ctx, w)
	})

	if strings.Contains(html, "<img src=x>") || strings.Contains(html, "<b>bold</b>") {
		t.Errorf("format names not escaped: %q", html)
	}
}
