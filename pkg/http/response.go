package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data in the envelope. The HTTP status matches the
// envelope status.
func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data any) error { return DataResponse(c, http.StatusOK, data) }

func ListResponse(c echo.Context, rows any, total int64) error {
	return SuccessResponse(c, &ListDataResponse{Rows: rows, Total: total})
}

// BadRequestResponse answers 400 with the validation details returned by
// ReadAndValidateRequest.
func BadRequestResponse(c echo.Context, details []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, details)
}

// AppErrorResponse writes err with its own status when it is an *AppError
// and as an opaque 500 otherwise.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}
