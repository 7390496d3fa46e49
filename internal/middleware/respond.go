package middleware

import (
	"net/http"

	"github.com/go-chi/render"
)

type errorEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorEnvelope{Success: false, Data: nil, Message: message})
}
