// Package toolutil provides helpers shared by the MCP tools and the REST handlers.
package toolutil

import (
	"errors"
	"net/http"

	"github.com/anatolykoptev/go_course/internal/engine/course"
)

// ConvertFailedMsg is shown for conversion errors that carry no public message.
const ConvertFailedMsg = "Failed to convert YouTube URL to course"

// NormLang normalises a language field: empty string → "all".
func NormLang(lang string) string {
	if lang == "" {
		return "all"
	}
	return lang
}

// PublicError strips operator detail from a conversion error. Invalid input
// keeps its specific message; upstream failures keep only their summary.
func PublicError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(course.Message(err, ConvertFailedMsg))
}

// HTTPStatus maps a conversion error to a response status.
func HTTPStatus(err error) int {
	switch course.KindOf(err) {
	case course.KindInvalidInput:
		return http.StatusBadRequest
	case course.KindUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
