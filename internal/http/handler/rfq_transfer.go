package handler

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/excel"
	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
)

// ImportRFQs ingests an uploaded workbook. Rows are committed
// sequentially; a mid-file failure leaves the earlier rows in place.
func (h *Handler) ImportRFQs(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing file",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open uploaded file",
		})
	}
	defer file.Close()

	stats, err := h.RFQ.Import(c.Context(), file)
	if err != nil {
		log.Printf("[rfq] import failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Import failed",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "rfq:import",
		Detail:   fileHeader.Filename,
	})

	return c.JSON(fiber.Map{"stats": stats})
}

// ExportRFQs streams both areas as a two-sheet workbook.
func (h *Handler) ExportRFQs(c *fiber.Ctx) error {
	sheets, err := h.RFQ.ExportSheets(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read RFQs",
		})
	}
	if len(sheets) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No RFQ data to export",
		})
	}

	data, err := excel.Write(sheets)
	if err != nil {
		log.Printf("[export] rfq workbook failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Export failed",
		})
	}

	return sendWorkbook(c, data, "rfq", "RFQ資料", time.Now())
}
