package httpapi

import "github.com/labstack/echo/v4"

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondError(c echo.Context, code int, message string) error {
	return c.JSON(code, errorResponse{
		Success: false,
		Error:   message,
	})
}
