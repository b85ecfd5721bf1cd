package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/anatolykoptev/go_course/internal/engine"
	"github.com/anatolykoptev/go_course/internal/engine/library"
	"github.com/anatolykoptev/go_course/internal/toolutil"
)

// writeLibraryError maps library errors onto the envelope.
func writeLibraryError(w http.ResponseWriter, err error, fallback string) {
	var verr *library.ValidationError
	switch {
	case errors.As(err, &verr):
		sendError(w, http.StatusBadRequest, verr.Msg, verr.Problems...)
	case errors.Is(err, library.ErrEmailTaken):
		sendError(w, http.StatusBadRequest, "Email already in use")
	case errors.Is(err, library.ErrInvalidCredentials):
		sendError(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, library.ErrNotFound):
		sendError(w, http.StatusNotFound, "Prompt not found")
	default:
		slog.Error(fallback, slog.Any("error", err))
		sendError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *server) signup(w http.ResponseWriter, r *http.Request) {
	if s.deps.Library == nil {
		sendError(w, http.StatusServiceUnavailable, "User storage is not configured")
		return
	}
	var in library.SignupInput
	if err := decodeBody(w, r, &in); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	res, err := s.deps.Library.Signup(r.Context(), in)
	if err != nil {
		writeLibraryError(w, err, "Failed to sign up user")
		return
	}
	sendSuccess(w, http.StatusCreated, "User created successfully", res)
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	if s.deps.Library == nil {
		sendError(w, http.StatusServiceUnavailable, "User storage is not configured")
		return
	}
	var in library.LoginInput
	if err := decodeBody(w, r, &in); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	res, err := s.deps.Library.Login(r.Context(), in)
	if err != nil {
		writeLibraryError(w, err, "Failed to log in user")
		return
	}
	sendSuccess(w, http.StatusOK, "Login successful", res)
}

func (s *server) convert(w http.ResponseWriter, r *http.Request) {
	var in engine.CourseConvertInput
	if err := decodeBody(w, r, &in); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	doc, err := s.deps.Converter.Convert(r.Context(), in)
	if err != nil {
		sendError(w, toolutil.HTTPStatus(err), toolutil.PublicError(err).Error())
		return
	}
	sendSuccess(w, http.StatusCreated, "Course created successfully from YouTube video", doc)
}
