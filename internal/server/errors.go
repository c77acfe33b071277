package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-builder/internal/analysis"
	"github.com/jonathan/resume-builder/internal/chat"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/editor"
	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/patch"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/schemas"
)

// ErrNoAnalysis is returned when a resume has not been analyzed yet
var ErrNoAnalysis = errors.New("resume has not been analyzed")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		shapeErr      *patch.ShapeError
		docErr        *resume.ValidationError
		decodeErr     *resume.DecodeError
		schemaErr     *schemas.ValidationError
		fieldErrs     validator.ValidationErrors
		unknownErr    *prompts.UnknownInstructionError
		paramsErr     *prompts.MissingParamsError
		extractErr    *extraction.Error
		apiErr        *llm.APICallError
		responseErr   *llm.ResponseError
		fetchErr      *fetch.Error
		parseErr      *analysis.ParseError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &shapeErr), errors.As(err, &docErr),
		errors.As(err, &decodeErr), errors.As(err, &schemaErr), errors.As(err, &fieldErrs),
		errors.As(err, &unknownErr), errors.As(err, &paramsErr),
		errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, db.ErrInvalidID),
		errors.Is(err, resume.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrResumeNotFound), errors.Is(err, db.ErrResumeNotFound),
		errors.Is(err, db.ErrJobNotFound), errors.Is(err, resume.ErrEntryNotFound),
		errors.Is(err, ErrNoAnalysis):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrRequestInFlight), errors.Is(err, chat.ErrStaleResponse),
		errors.Is(err, db.ErrJobLimitReached), errors.Is(err, db.ErrJobAlreadyLinked):
		return http.StatusConflict
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr), errors.As(err, &responseErr), errors.As(err, &fetchErr),
		errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
