package notify

import (
	"fmt"
	"html"
	"strings"
)

// ApplicationReceived confirms an admission application.
func ApplicationReceived(to, name, college, referenceID string, courses []string) Message {
	text := fmt.Sprintf(
		"Hi %s,\n\nYour application to %s for %s has been received.\n"+
			"Your reference ID is %s. Please quote it in any follow-up.\n",
		name, college, strings.Join(courses, ", "), referenceID)
	return Message{
		To:      to,
		Subject: "Application received: " + referenceID,
		Text:    text,
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your application to <b>%s</b> for %s has been received.</p>"+
				"<p>Your reference ID is <code>%s</code>. Please quote it in any follow-up.</p>",
			html.EscapeString(name), html.EscapeString(college),
			html.EscapeString(strings.Join(courses, ", ")), html.EscapeString(referenceID)),
	}
}

// VerifyEmail carries the email verification link.
func VerifyEmail(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email",
		Text:    fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening:\n%s\n", name, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Confirm your email address</a></p>`,
			html.EscapeString(name), html.EscapeString(link)),
	}
}

// ResetPassword carries the password reset link.
func ResetPassword(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text: fmt.Sprintf("Someone asked to reset the password for this account.\n"+
			"If it was you, open:\n%s\nThe link expires in one hour.\n", link),
		HTML: fmt.Sprintf(`<p>Someone asked to reset the password for this account.</p>`+
			`<p><a href="%s">Reset password</a> (expires in one hour)</p>`, html.EscapeString(link)),
	}
}
