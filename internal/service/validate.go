package service

import (
	"regexp"
	"strings"

	"github.com/staffdesk/ems/internal/model"
)

const minPasswordLen = 6

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

func validRole(role string) bool {
	return role == model.RoleEmployee || role == model.RoleManager
}
