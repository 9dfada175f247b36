// Package core provides the business logic for contact CSV conversions.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
// Errors related to locating and handling the input and output files:
//
//	FILE001 - Input not found: The input file could not be opened
//	          Action: Check the file path and permissions, then try again
//	          Patterns: "input file not found"
//
//	FILE002 - Output failed: The converted file could not be written
//	          Action: Check disk space and permissions on the output location
//	          Patterns: "output write failed"
//
//	FILE003 - File too large: File exceeds the configured size limit
//	          Action: Split the export into smaller files
//	          Patterns: "file too large"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV export to convert
//	          Patterns: "no file provided"
//
// # CSV Errors (CSV001-CSV099)
//
// Errors related to parsing the input file:
//
//	CSV001 - Malformed row: A row is not valid CSV
//	         Action: Fix the reported line (quoting, column count) and retry
//	         Patterns: "malformed row"
//
// # Encoding Errors (ENC001-ENC099)
//
// Errors related to character encoding:
//
//	ENC001 - Not UTF-8: The file contains bytes that are not valid UTF-8
//	         Action: Re-save the export with UTF-8 encoding
//	         Patterns: "invalid utf-8"
//
// # Topic Configuration Errors (TOPIC001-TOPIC099)
//
// Errors related to topic preference configuration:
//
//	TOPIC001 - Invalid topic: A configured topic is not usable
//	           Action: Fix the reported topic name or preference value
//	           Patterns: "invalid topic"
//
// # Format Errors (FMT001-FMT099)
//
// Errors related to source format selection:
//
//	FMT001 - Unknown format: The selected source format is not registered
//	         Action: Pick one of the listed source formats
//	         Patterns: "unknown source format"
//
// # Conversion Errors (CONV001-CONV099)
//
// Errors related to the conversion lifecycle and job management:
//
//	CONV001 - System busy: Too many conversions in progress
//	          Action: Please wait a moment and try again
//	          Patterns: "too many conversions"
//
//	CONV002 - Job not found: Conversion job does not exist
//	          Action: The job may have expired. Start a new conversion
//	          Patterns: "unknown conversion job"
//
//	CONV003 - Cancelled: The conversion was cancelled
//	          Action: Start a new conversion when ready
//	          Patterns: "context canceled"
//
//	CONV004 - Timed out: The conversion ran out of time
//	          Action: Try a smaller file or try again later
//	          Patterns: "context deadline exceeded"
//
// # Database Errors (DB001-DB099)
//
// Errors related to the conversion history store:
//
//	DB001 - Connection refused: Unable to reach the history database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: History database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
// # Rate Limiting (RATE001-RATE099)
//
// Errors related to request throttling:
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE004)
	// These errors occur while opening or writing the two files of a run.
	// =========================================================================
	{
		pattern: "input file not found",
		msg: UserMessage{
			Message: "The input file could not be opened",
			Action:  "Check the file path and permissions, then try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "output write failed",
		msg: UserMessage{
			Message: "The converted file could not be written",
			Action:  "Check disk space and permissions on the output location",
			Code:    "FILE002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV export to convert",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// CSV Errors (CSV001)
	// These errors occur when the input is not structurally valid CSV.
	// =========================================================================
	{
		pattern: "malformed row",
		msg: UserMessage{
			Message: "A row in the file is not valid CSV",
			Action:  "Fix the reported line (check quoting and column count) and retry",
			Code:    "CSV001",
		},
	},

	// =========================================================================
	// Encoding Errors (ENC001)
	// These errors occur when the input is not UTF-8 text.
	// =========================================================================
	{
		pattern: "invalid utf-8",
		msg: UserMessage{
			Message: "The file contains characters that are not valid UTF-8",
			Action:  "Re-save the export with UTF-8 encoding",
			Code:    "ENC001",
		},
	},

	// =========================================================================
	// Topic Configuration Errors (TOPIC001)
	// These errors occur when the topic preference configuration is rejected.
	// =========================================================================
	{
		pattern: "invalid topic",
		msg: UserMessage{
			Message: "The topic configuration is not valid",
			Action:  "Fix the reported topic name or preference value",
			Code:    "TOPIC001",
		},
	},

	// =========================================================================
	// Format Errors (FMT001)
	// These errors occur when the requested source format is not registered.
	// =========================================================================
	{
		pattern: "unknown source format",
		msg: UserMessage{
			Message: "The selected source format is not recognized",
			Action:  "Pick one of the listed source formats",
			Code:    "FMT001",
		},
	},

	// =========================================================================
	// Conversion Errors (CONV001-CONV004)
	// These errors occur during the conversion lifecycle.
	// =========================================================================
	{
		pattern: "too many conversions",
		msg: UserMessage{
			Message: "System is busy processing other conversions",
			Action:  "Please wait a moment and try again",
			Code:    "CONV001",
		},
	},
	{
		pattern: "unknown conversion job",
		msg: UserMessage{
			Message: "Conversion job not found",
			Action:  "The job may have expired. Start a new conversion",
			Code:    "CONV002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The conversion was cancelled",
			Action:  "Start a new conversion when ready",
			Code:    "CONV003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The conversion timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "CONV004",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB002)
	// These errors occur when the history store is unreachable.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the history database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "History database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// These errors occur when request limits are exceeded.
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("malformed row at line 7: wrong number of fields")
//	msg := MapError(err)
//	// msg.Code == "CSV001"
//	// msg.Message == "A row in the file is not valid CSV"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "A row in the file is not valid CSV (Code: CSV001). Fix the reported line (check quoting and column count) and retry"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean
// message for display.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
