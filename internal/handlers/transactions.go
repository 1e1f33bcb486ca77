package handlers

import (
	"context"
	"errors"

	"github.com/JosineyJr/switch_router/internal/pipeline"
	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/JosineyJr/switch_router/internal/wizard"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Submitter interface {
	Submit(ctx context.Context, transactionID string, payload structs.TransactionPayload) (structs.Transaction, error)
}

type transactionHandler struct {
	l zerolog.Logger
	s Submitter
}

type sendTransactionRequest struct {
	TransactionID string                     `json:"transactionId"`
	Data          structs.TransactionPayload `json:"data"`
}

func NewTransactionHandler(l zerolog.Logger, s Submitter) *transactionHandler {
	return &transactionHandler{l: l, s: s}
}

func (h *transactionHandler) Send(c *fiber.Ctx) error {
	var req sendTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		h.l.Error().Err(err).Send()
		return fail(c, fiber.StatusBadRequest, "invalid request body", nil)
	}

	if req.TransactionID == "" {
		return fail(c, fiber.StatusBadRequest, "missing field 'transactionId'", nil)
	}

	id, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "field 'transactionId' must be a UUID", nil)
	}
	// every accepted spelling of a UUID maps to one idempotency key
	req.TransactionID = id.String()

	if err := req.Data.Validate(); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	tx, err := h.s.Submit(c.UserContext(), req.TransactionID, req.Data)
	if err != nil {
		var de *pipeline.DispatchError
		if errors.As(err, &de) {
			h.l.Warn().Err(de.Err).Str("switch", de.Endpoint).Str("transaction", de.TransactionID).Send()
		}
		return fail(c, statusFor(err), err.Error(), recordOrNil(tx))
	}

	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Data: tx})
}

// statusFor maps core errors: no healthy switch is 503, dispatch and store
// failures are 500.
func statusFor(err error) int {
	if errors.Is(err, wizard.ErrNoHealthySwitches) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func recordOrNil(tx structs.Transaction) any {
	if tx.TransactionID == "" {
		return nil
	}
	return tx
}

func fail(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(envelope{Success: false, Message: message, Data: data})
}
