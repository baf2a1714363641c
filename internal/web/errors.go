package web

// errors.go maps technical errors to user-facing messages.
//
// Every failure leaves the API as well-formed JSON with a short message,
// a suggested action, and a stable code users can quote to support.
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns sit above general ones.
//
// Code ranges:
//
//	DB001-DB099   database constraints and connectivity
//	FILE001-FILE099  upload file handling
//	TPL001-TPL099 listing templates
//	PRD001-PRD099 product records
//	SCR001-SCR099 scraping API proxy
//	REQ001-REQ099 request shape and cancellation
//	RATE001       inbound throttling
//	ERR000        fallback

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// UserMessage carries the user-facing half of an error.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // support reference
}

// ErrorResponse is the JSON shape of every failed request. Error carries
// the technical error string; Message is the user-facing mapping.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database constraints
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A product with this ID already exists",
			Action:  "Re-upload after removing the duplicate rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},

	// Database connectivity
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Upload files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit (10MB)",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Upload a comma-separated .csv file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 or Shift_JIS",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid multipart form",
		msg: UserMessage{
			Message: "Upload form could not be parsed",
			Action:  "Re-send the upload as multipart/form-data",
			Code:    "FILE006",
		},
	},

	// Templates
	{
		pattern: "template not found",
		msg: UserMessage{
			Message: "Listing template not found",
			Action:  "It may have been deleted. Refresh the template list",
			Code:    "TPL001",
		},
	},
	{
		pattern: "html_content",
		msg: UserMessage{
			Message: "Template content is required",
			Action:  "Provide the HTML body of the template",
			Code:    "TPL002",
		},
	},
	{
		pattern: "template_content",
		msg: UserMessage{
			Message: "Template content is required",
			Action:  "Provide the HTML body of the template",
			Code:    "TPL002",
		},
	},
	{
		pattern: "template_name",
		msg: UserMessage{
			Message: "Template name is required",
			Action:  "Give the template a name before saving",
			Code:    "TPL003",
		},
	},

	// Products
	{
		pattern: "product not found",
		msg: UserMessage{
			Message: "Product not found",
			Action:  "It may have been removed. Refresh the product list",
			Code:    "PRD001",
		},
	},
	{
		pattern: "no item_id or source_url",
		msg: UserMessage{
			Message: "Row has no item ID or source URL",
			Action:  "Each row needs an item_id or source_url to be saved",
			Code:    "PRD002",
		},
	},

	// Scraping proxy
	{
		pattern: "scraper not configured",
		msg: UserMessage{
			Message: "Scraping API is not configured",
			Action:  "Set SCRAPER_BASE_URL to enable scraping endpoints",
			Code:    "SCR001",
		},
	},
	{
		pattern: "scraping api",
		msg: UserMessage{
			Message: "Scraping API request failed",
			Action:  "Check the API status and try again",
			Code:    "SCR002",
		},
	},

	// Request shape and cancellation. "timeout" stays below the context
	// patterns so deadline errors map to REQ003, not DB006.
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "Request body is not valid JSON",
			Action:  "Check the request format and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again with a smaller batch",
			Code:    "DB006",
		},
	},

	// Throttling
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is the ERR000 fallback. Check the server logs for the
// original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. The first
// matching pattern wins; unmatched errors fall back to ERR000.
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

// respondError logs the technical error and writes the mapped JSON response.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   err.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
