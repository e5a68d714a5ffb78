package handlers

import (
	"errors"

	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Envelope is the uniform JSON body of every API response.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Token      string            `json:"token,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Total      *int64            `json:"total,omitempty"`
	Count      *int              `json:"count,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

// PageRef points at another page of the same listing.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination holds the neighbouring pages that exist.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

var errInvalidBody = fiber.NewError(fiber.StatusBadRequest, "Invalid request body")

func pageEnvelope(page *services.ProductPage) Envelope {
	pagination := &Pagination{}
	if page.Next != nil {
		pagination.Next = &PageRef{Page: *page.Next, Limit: page.Limit}
	}
	if page.Prev != nil {
		pagination.Prev = &PageRef{Page: *page.Prev, Limit: page.Limit}
	}
	total := page.Total
	count := page.Count
	return Envelope{
		Success:    true,
		Data:       page.Items,
		Total:      &total,
		Count:      &count,
		Pagination: pagination,
	}
}

// ErrorHandler maps domain errors to status codes and the error envelope.
// Unclassified errors are logged and reported as a generic server error.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("Request failed")
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, Envelope) {
	var verr *services.ValidationError
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, Envelope{Message: verr.Error(), Errors: verr.Fields}
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, Envelope{Message: "Invalid credentials"}
	case errors.Is(err, services.ErrUnauthenticated):
		return fiber.StatusUnauthorized, Envelope{Message: "Not authorized to access this route"}
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, Envelope{Message: "Not authorized to perform this action"}
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, Envelope{Message: "Resource not found"}
	case errors.As(err, &ferr):
		if ferr.Code >= fiber.StatusInternalServerError {
			return ferr.Code, Envelope{Message: "Server Error"}
		}
		return ferr.Code, Envelope{Message: ferr.Message}
	}
	return fiber.StatusInternalServerError, Envelope{Message: "Server Error"}
}

// NotFound answers requests that matched no route.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(Envelope{Message: "Route not found"})
}
