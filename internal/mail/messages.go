package mail

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"launchpad/internal/tasks"
)

func PasswordReset(frontendURL, to, username, token string, ttl time.Duration) tasks.SendMail {
	link := link(frontendURL, "/reset-password", token)
	return tasks.SendMail{
		To:      to,
		Subject: "Reset your Launchpad password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s\n\nIf you did not ask for this, ignore this email.\n",
			username, ttl, link,
		),
	}
}

func Verification(frontendURL, to, username, token string) tasks.SendMail {
	link := link(frontendURL, "/verify-email", token)
	return tasks.SendMail{
		To:      to,
		Subject: "Verify your Launchpad email",
		Body: fmt.Sprintf(
			"Welcome %s,\n\nConfirm your email address by opening:\n\n%s\n",
			username, link,
		),
	}
}

func link(base, path, token string) string {
	return strings.TrimRight(base, "/") + path + "?token=" + url.QueryEscape(token)
}
