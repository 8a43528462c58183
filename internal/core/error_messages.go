package core

// error_messages.go maps technical errors to coded, user-facing messages for
// the HTTP layer and the CLI.
//
// Codes by category:
//
//	FMT001  - File category not recognized
//	IMP001  - Too many imports in progress
//	IMP002  - Import run not found
//	FILE001 - File too large
//	FILE004 - No file provided
//	DB001   - Record violates a store constraint
//	DB004   - Store unreachable
//	DB006   - Store timeout
//	RATE001 - Rate limited
//	ERR000  - Anything else; check the logs for the technical error
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively by substring; the first matching pattern wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{
		err: ErrUnrecognizedFormat,
		msg: UserMessage{
			Message: "File category not recognized",
			Action:  "Use one of title.basics, name.basics, title.akas, title.principals",
			Code:    "FMT001",
		},
	},
	{
		err: ErrTooManyImports,
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait for the running import to finish and try again",
			Code:    "IMP001",
		},
	},
	{
		err: ErrRunNotFound,
		msg: UserMessage{
			Message: "Import run not found",
			Action:  "Check the run id returned when the import was started",
			Code:    "IMP002",
		},
	},
	{
		err: ErrIntegrity,
		msg: UserMessage{
			Message: "Record violates a store constraint",
			Action:  "Check the logs for the rejected row",
			Code:    "DB001",
		},
	},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file or import it with the CLI",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Attach a TSV file in the \"file\" form field",
			Code:    "FILE004",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
