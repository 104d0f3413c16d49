package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// Message is a rendered notification email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

type messageData struct {
	ContactName string
	UserName    string
	Hours       int
}

var htmlBody = template.Must(template.New("inactivity.html").Parse(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #e53e3e;">&#9888;&#65039; Urgent notice</h1>
  <p>Dear {{.ContactName}},</p>
  <p>You are listed as an emergency contact for <strong>{{.UserName}}</strong>, who has <strong style="color: #e53e3e;">not checked in for more than {{.Hours}} hours</strong>.</p>
  <p>This could mean that they:</p>
  <ul>
    <li>forgot to check in,</li>
    <li>ran into an emergency,</li>
    <li>or may need your help.</li>
  </ul>
  <p>Please get in touch with them as soon as you can to make sure they are safe.</p>
  <hr style="margin: 20px 0; border: none; border-top: 1px solid #eee;" />
  <p style="color: #666; font-size: 12px;">
    This email was sent automatically by Safecheck.<br/>
    If you do not know this person, please ignore it.
  </p>
</div>
`))

var textBody = texttemplate.Must(texttemplate.New("inactivity.txt").Parse(`Dear {{.ContactName}},

You are listed as an emergency contact for {{.UserName}}, who has not checked in for more than {{.Hours}} hours.

They may have forgotten to check in, run into an emergency, or need your help.
Please get in touch with them as soon as you can to make sure they are safe.

This email was sent automatically by Safecheck. If you do not know this person, please ignore it.
`))

// RenderInactivityEmail renders the fixed inactivity notice for e.
func RenderInactivityEmail(e Email) (Message, error) {
	data := messageData{
		ContactName: e.ContactName,
		UserName:    e.UserName,
		Hours:       int(InactivityThreshold.Hours()),
	}

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := textBody.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("⚠️ Urgent: %s has not checked in for over %d hours", e.UserName, data.Hours),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
