package controller

import (
	"ai-reqextract-be/internal/dto"
	"ai-reqextract-be/internal/pkg/serverutils"
	"ai-reqextract-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IExtractionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Extract(ctx *fiber.Ctx) error
	ExtractBatch(ctx *fiber.Ctx) error
	GetRuns(ctx *fiber.Ctx) error
	GetRun(ctx *fiber.Ctx) error
}

type extractionController struct {
	service service.IExtractionService
}

func NewExtractionController(service service.IExtractionService) IExtractionController {
	return &extractionController{service: service}
}

func (c *extractionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/extraction/v1")
	h.Use(auth)
	h.Post("/extract", c.Extract)
	h.Post("/batch", c.ExtractBatch)
	h.Get("/runs", c.GetRuns)
	h.Get("/runs/:id", c.GetRun)
}

func (c *extractionController) Extract(ctx *fiber.Ctx) error {
	var req dto.ExtractRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ExtractAttachment(ctx.Context(), req.AttachmentId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Extraction finished", res))
}

func (c *extractionController) ExtractBatch(ctx *fiber.Ctx) error {
	var req dto.ExtractBatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ExtractBatch(ctx.Context(), req.AttachmentIds)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Batch extraction finished", res))
}

func (c *extractionController) GetRuns(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)

	res, err := c.service.GetRuns(ctx.Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get extraction runs", res))
}

func (c *extractionController) GetRun(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid run id")
	}

	res, err := c.service.GetRun(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "run not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get extraction run", res))
}
