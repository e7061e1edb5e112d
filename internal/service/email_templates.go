package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/yuin/goldmark"

	"github.com/staffdesk/ems/internal/otp"
)

type mailContent struct {
	Subject string
	Body    string
}

var markdown = goldmark.New()

func markdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderOTPMail(purpose otp.Purpose, code string, ttl time.Duration) (mailContent, error) {
	title := purpose.Title()
	src := fmt.Sprintf(`## Your code for %s

Your one time password is: **%s**

This code expires in %s.

If you didn't request this, please ignore this email.
`, title, code, humanDuration(ttl))
	body, err := markdownToHTML(src)
	if err != nil {
		return mailContent{}, err
	}
	return mailContent{Subject: "OTP for " + title, Body: body}, nil
}

func renderWelcomeMail(name, managerName, email, tempPassword, loginURL string) (mailContent, error) {
	src := fmt.Sprintf(`## Welcome to the Employee Management System

Hello %s,

Your account has been created by manager %s. Here are your login credentials:

- Email: %s
- Password: %s

Please log in and change your password immediately.
`, name, managerName, email, tempPassword)
	if loginURL != "" {
		src += fmt.Sprintf("\n[Log in here](%s)\n", loginURL)
	}
	body, err := markdownToHTML(src)
	if err != nil {
		return mailContent{}, err
	}
	return mailContent{Subject: "Your Employee Account Has Been Created", Body: body}, nil
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return fmt.Sprintf("%d seconds", int(d/time.Second))
}
