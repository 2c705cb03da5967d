package tester

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// TimeLayout formats the "Sent at" line.
const TimeLayout = "2006-01-02 15:04:05"

const explanation = "If you received this email, your mail configuration can send emails successfully."

type templateData struct {
	SiteName    string
	SiteURL     string
	SentAt      string
	Explanation string
}

var plainTmpl = texttemplate.Must(texttemplate.New("plain").Parse(
	`This is a test email from {{.SiteName}}.

Site URL: {{.SiteURL}}
Sent at: {{.SentAt}}

{{.Explanation}}

---
This email was sent by maillog from {{.SiteName}}`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9; border: 1px solid #ddd;">
<h2 style="color: #0073aa;">Test Email from {{.SiteName}}</h2>
<p><strong>Site URL:</strong> <a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
<p><strong>Sent at:</strong> {{.SentAt}}</p>
<div style="background-color: #fff; padding: 15px; margin: 20px 0; border-left: 4px solid #0073aa;">
<p>{{.Explanation}}</p>
</div>
<hr style="border: none; border-top: 1px solid #ddd; margin: 20px 0;">
<p style="font-size: 12px; color: #666;">This email was sent by maillog from {{.SiteName}}</p>
</div></body></html>`))

func (s *Sender) data() templateData {
	return templateData{
		SiteName:    s.site.Name,
		SiteURL:     s.site.URL,
		SentAt:      s.now().Format(TimeLayout),
		Explanation: explanation,
	}
}

// defaultPlain renders the plain-text body.  The templates are static and
// their data is all strings, so Execute cannot fail on a strings.Builder.
func (s *Sender) defaultPlain() string {
	var b strings.Builder
	_ = plainTmpl.Execute(&b, s.data())
	return b.String()
}

func (s *Sender) defaultHTML() string {
	var b strings.Builder
	_ = htmlTmpl.Execute(&b, s.data())
	return b.String()
}

func (s *Sender) defaultSubject() string {
	return "Test Email from " + s.site.Name
}
