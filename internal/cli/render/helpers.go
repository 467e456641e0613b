package render

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

var (
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
)

// FormatWarning formats a warning line
func FormatWarning(message string) string {
	return warnColor.Sprint("⚠️  " + message)
}

// FormatSuccess formats a success line
func FormatSuccess(message string) string {
	return successColor.Sprint("✅ " + message)
}

// FormatFailure formats a failure headline
func FormatFailure(message string) string {
	return errorColor.Sprint("❌ " + capitalize(message))
}

// FormatError formats a command error for the terminal. Deployment failures
// are prefixed with the stage they stopped in.
func FormatError(err error) string {
	var deployErr *domain.DeploymentError
	if errors.As(err, &deployErr) {
		return FormatFailure(titleCase(deployErr.Stage) + " failed: " + deployErr.Err.Error())
	}
	return FormatFailure(err.Error())
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
