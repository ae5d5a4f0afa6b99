package errutil

import (
	"errors"
	"net/http"
)

type HttpError struct {
	code int
	err  error
}

func (e *HttpError) Error() string {
	return e.err.Error()
}

func (e *HttpError) Unwrap() error {
	return e.err
}

func (e *HttpError) Code() int {
	return e.code
}

func newHttpError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &HttpError{
		code: code,
		err:  err,
	}
}

func ValidationError(err error) error {
	return newHttpError(http.StatusBadRequest, err)
}

func BadRequestError(err error) error {
	return newHttpError(http.StatusBadRequest, err)
}

func NotFoundError(err error) error {
	return newHttpError(http.StatusNotFound, err)
}

func ConflictError(err error) error {
	return newHttpError(http.StatusConflict, err)
}

func UnauthorizedError(err error) error {
	return newHttpError(http.StatusUnauthorized, err)
}

// ParseHttpError maps err to a status code and a client-facing message.
// Errors without a kind are reported as internal errors and their text is not exposed.
func ParseHttpError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.code, err.Error()
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func IsNotFound(err error) bool {
	var httpErr *HttpError
	return errors.As(err, &httpErr) && httpErr.code == http.StatusNotFound
}
