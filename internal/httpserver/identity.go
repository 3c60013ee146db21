package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var errNoUser = errors.New("unauthorized")

// GetID returns the user id stored on the context by the bearer middleware.
func GetID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return uuid.Nil, errNoUser
	}
	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errNoUser
	}
	return userID, nil
}

func isAdmin(c echo.Context) bool {
	v, _ := c.Get("is_admin").(bool)
	return v
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	s, _ := c.Get("session_id").(string)
	return uuid.Parse(s)
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is not a uuid")
	}
	return id, nil
}
