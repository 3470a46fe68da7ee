package email

import (
	"fmt"
	"html"
	"time"

	"salesforecast/internal/config"
)

// Templates renders alert emails.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .success { color: #059669; }
        .error { color: #dc2626; }
        code { background: #e5e7eb; padding: 2px 6px; border-radius: 4px; font-family: monospace; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This email was sent by %s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content, html.EscapeString(t.cfg.SiteTitle), t.cfg.BaseURL, t.cfg.BaseURL)
}

// ArtifactUnavailable is sent when a model artifact stops being readable.
func (t *Templates) ArtifactUnavailable(model, uri string, cause error, at time.Time) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] %s model artifact unavailable", t.cfg.SiteTitle, model)
	when := at.UTC().Format(time.RFC3339)

	content := fmt.Sprintf(`
        <p>The %s model artifact could not be read. Predictions with this model fail until it is restored.</p>

        <div class="info-box">
            <p><span class="label">Artifact:</span> <code>%s</code></p>
            <p><span class="label">Status:</span> <span class="error">Unavailable</span></p>
            <p><span class="label">Error:</span> %s</p>
            <p><span class="label">Checked at:</span> %s</p>
        </div>
    `,
		html.EscapeString(model),
		html.EscapeString(uri),
		html.EscapeString(cause.Error()),
		when,
	)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`%s model artifact unavailable

Artifact: %s
Status: Unavailable
Error: %s
Checked at: %s

Predictions with this model fail until it is restored.

--
%s
%s`,
		model,
		uri,
		cause.Error(),
		when,
		t.cfg.SiteTitle,
		t.cfg.BaseURL,
	)
	return
}

// ArtifactRecovered is sent when a previously unreadable artifact loads again.
func (t *Templates) ArtifactRecovered(model, uri string, at time.Time) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] %s model artifact available again", t.cfg.SiteTitle, model)
	when := at.UTC().Format(time.RFC3339)

	content := fmt.Sprintf(`
        <p>The %s model artifact is readable again.</p>

        <div class="info-box">
            <p><span class="label">Artifact:</span> <code>%s</code></p>
            <p><span class="label">Status:</span> <span class="success">Available</span></p>
            <p><span class="label">Checked at:</span> %s</p>
        </div>
    `,
		html.EscapeString(model),
		html.EscapeString(uri),
		when,
	)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf(`%s model artifact available again

Artifact: %s
Status: Available
Checked at: %s

--
%s
%s`,
		model,
		uri,
		when,
		t.cfg.SiteTitle,
		t.cfg.BaseURL,
	)
	return
}
