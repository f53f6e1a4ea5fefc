package handler

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/excel"
	"backend-ticketing/internal/helper"
)

// Export column headers kept identical to the workbook the operators
// already use.
var ticketExportHeader = []string{
	"號碼", "申請人", "客戶名稱", "客戶需求", "預計使用機種", "起始日期",
	"期望完成日期", "申請日期", "已等待天數", "處理天數", "已回覆天數",
	"FCST", "預計量產日", "處理進度", "備註", "PM",
}

var ticketExportWidths = []float64{
	10, 15, 20, 30, 20, 15, 15, 15, 12, 12, 12, 12, 15, 12, 30, 12,
}

// ExportTickets streams every ticket as a single-sheet workbook.
func (h *Handler) ExportTickets(c *fiber.Ctx) error {
	tickets, err := h.Queue.AllTickets(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read tickets",
		})
	}
	if len(tickets) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No tickets to export",
		})
	}

	now := time.Now()
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []string{
			strconv.Itoa(t.TicketNumber),
			t.Applicant,
			t.CustomerName,
			t.CustomerRequirement,
			t.MachineType,
			t.StartDate,
			t.ExpectedCompletionDate,
			helper.DatePart(t.CreatedAt),
			helper.DaysSinceCell(t.CreatedAt, now),
			helper.DaysSinceCell(t.ProcessingAt, now),
			helper.DaysSinceCell(t.ReplyDate, now),
			t.Fcst,
			t.MassProductionDate,
			t.Status,
			t.Note,
			t.Assignee,
		})
	}

	data, err := excel.Write([]excel.Sheet{{
		Name:      "票券資料",
		Header:    ticketExportHeader,
		Rows:      rows,
		ColWidths: ticketExportWidths,
	}})
	if err != nil {
		log.Printf("[export] ticket workbook failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Export failed",
		})
	}

	return sendWorkbook(c, data, "tickets", "票券資料", now)
}

// sendWorkbook sets the download headers with an ASCII fallback name plus
// the RFC 5987 UTF-8 name for browsers that honor it.
func sendWorkbook(c *fiber.Ctx, data []byte, asciiBase, utf8Base string, now time.Time) error {
	stamp := now.Format("200601021504")
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(
		`attachment; filename="%s_%s.xlsx"; filename*=UTF-8''%s`,
		asciiBase, stamp,
		url.PathEscape(fmt.Sprintf("%s_%s.xlsx", utf8Base, stamp)),
	))
	return c.Send(data)
}
