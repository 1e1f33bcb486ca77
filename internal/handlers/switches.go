package handlers

import (
	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/gofiber/fiber/v2"
)

type StatusReader interface {
	Statuses() []structs.SwitchStatus
}

type switchesHandler struct {
	sr StatusReader
}

func NewSwitchesHandler(sr StatusReader) *switchesHandler {
	return &switchesHandler{sr: sr}
}

func (h *switchesHandler) List(c *fiber.Ctx) error {
	return c.JSON(envelope{Success: true, Data: h.sr.Statuses()})
}
