// Package queue owns the ticket lifecycle and the current/next/last
// pointers. All pointer mutations go through the Manager; nothing else
// writes the queue keys.
package queue

import (
	"context"
	"errors"
	"strconv"
	"time"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/store"
)

var (
	ErrNotFound      = errors.New("ticket not found")
	ErrInvalidStatus = errors.New("invalid ticket status")
	// ErrPastLast - call-next would advance beyond the highest issued
	// ticket.
	ErrPastLast = errors.New("no ticket to call")
)

type Manager struct {
	s *store.Store
}

func New(s *store.Store) *Manager {
	return &Manager{s: s}
}

// State reads the three queue pointers. Missing keys read as zero, so a
// fresh deployment starts at {0, 0, 0}.
func (m *Manager) State(ctx context.Context) (models.QueueState, error) {
	vals, err := m.s.R.MGet(ctx, store.KeyQueueCurrent, store.KeyQueueLast, store.KeyQueueNext).Result()
	if err != nil {
		return models.QueueState{}, err
	}
	return models.QueueState{
		CurrentNumber: toInt(vals[0]),
		LastTicket:    toInt(vals[1]),
		NextNumber:    toInt(vals[2]),
	}, nil
}

// SetState force-sets the supplied pointers verbatim. No bounds checking:
// administrators may break currentNumber <= lastTicket on purpose and
// downstream displays must tolerate it.
func (m *Manager) SetState(ctx context.Context, req models.UpdateStateRequest) (models.QueueState, error) {
	if req.CurrentNumber != nil {
		if err := m.s.R.Set(ctx, store.KeyQueueCurrent, *req.CurrentNumber, 0).Err(); err != nil {
			return models.QueueState{}, err
		}
	}
	if req.NextNumber != nil {
		if err := m.s.R.Set(ctx, store.KeyQueueNext, *req.NextNumber, 0).Err(); err != nil {
			return models.QueueState{}, err
		}
	}
	if req.LastTicket != nil {
		if err := m.s.R.Set(ctx, store.KeyQueueLast, *req.LastTicket, 0).Err(); err != nil {
			return models.QueueState{}, err
		}
	}
	return m.State(ctx)
}

// Issue allocates the next ticket number by atomically bumping the last
// pointer, then persists the record with status pending.
func (m *Manager) Issue(ctx context.Context, req models.CreateTicketRequest) (int, error) {
	n64, err := m.s.R.Incr(ctx, store.KeyQueueLast).Result()
	if err != nil {
		return 0, err
	}
	n := int(n64)

	fields := map[string]interface{}{
		"applicant":              req.Applicant,
		"customerName":           req.CustomerName,
		"customerRequirement":    req.CustomerRequirement,
		"machineType":            req.MachineType,
		"startDate":              req.StartDate,
		"expectedCompletionDate": req.ExpectedCompletionDate,
		"fcst":                   req.Fcst,
		"massProductionDate":     req.MassProductionDate,
		"status":                 models.StatusPending,
		"note":                   "",
		"assignee":               "",
		"createdAt":              helper.NowISO(),
	}
	if err := m.s.R.HSet(ctx, store.TicketKey(n), fields).Err(); err != nil {
		return 0, err
	}
	if err := m.s.R.RPush(ctx, store.KeyQueueTickets, n).Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// CallNext advances current to the next override when one is set, else
// current+1. Refused when the target is past the last issued ticket. The
// override is consumed: next is rewritten to the new current+1.
func (m *Manager) CallNext(ctx context.Context) (models.QueueState, error) {
	state, err := m.State(ctx)
	if err != nil {
		return models.QueueState{}, err
	}

	target := state.NextNumber
	if target <= 0 {
		target = state.CurrentNumber + 1
	}
	if target > state.LastTicket {
		return models.QueueState{}, ErrPastLast
	}

	if err := m.s.R.MSet(ctx,
		store.KeyQueueCurrent, target,
		store.KeyQueueNext, target+1,
	).Err(); err != nil {
		return models.QueueState{}, err
	}
	return m.State(ctx)
}

// Ticket fetches one record.
func (m *Manager) Ticket(ctx context.Context, n int) (models.Ticket, error) {
	data, err := m.s.R.HGetAll(ctx, store.TicketKey(n)).Result()
	if err != nil {
		return models.Ticket{}, err
	}
	if len(data) == 0 {
		return models.Ticket{}, ErrNotFound
	}
	return ticketFromHash(n, data), nil
}

// Tickets returns up to limit tickets, newest first, with derived fields,
// plus the waiting count over the whole queue. The waiting count is a
// pure status==pending count; call-next never changes a status.
func (m *Manager) Tickets(ctx context.Context, limit int) ([]models.TicketView, int, error) {
	state, err := m.State(ctx)
	if err != nil {
		return nil, 0, err
	}

	raw, err := m.s.R.LRange(ctx, store.KeyQueueTickets, 0, -1).Result()
	if err != nil {
		return nil, 0, err
	}

	numbers := make([]int, 0, len(raw))
	for _, item := range raw {
		if n, err := strconv.Atoi(item); err == nil {
			numbers = append(numbers, n)
		}
	}

	now := time.Now()
	waiting := 0
	views := make([]models.TicketView, 0, limit)

	// Newest first: walk the issue list backwards. The waiting count
	// still covers every ticket, not just the returned page.
	for i := len(numbers) - 1; i >= 0; i-- {
		n := numbers[i]
		data, err := m.s.R.HGetAll(ctx, store.TicketKey(n)).Result()
		if err != nil {
			return nil, 0, err
		}
		if len(data) == 0 {
			continue
		}
		ticket := ticketFromHash(n, data)
		if ticket.Status == models.StatusPending {
			waiting++
		}
		if len(views) < limit {
			views = append(views, models.TicketView{
				Ticket:         ticket,
				IsCurrent:      n == state.CurrentNumber,
				IsCalled:       n <= state.CurrentNumber,
				DaysWaiting:    helper.DaysSince(ticket.CreatedAt, now),
				DaysProcessing: helper.DaysSince(ticket.ProcessingAt, now),
				DaysSinceReply: helper.DaysSince(ticket.ReplyDate, now),
			})
		}
	}
	return views, waiting, nil
}

// AllTickets returns every record in issue order, for export.
func (m *Manager) AllTickets(ctx context.Context) ([]models.Ticket, error) {
	raw, err := m.s.R.LRange(ctx, store.KeyQueueTickets, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, 0, len(raw))
	for _, item := range raw {
		n, err := strconv.Atoi(item)
		if err != nil {
			continue
		}
		data, err := m.s.R.HGetAll(ctx, store.TicketKey(n)).Result()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		tickets = append(tickets, ticketFromHash(n, data))
	}
	return tickets, nil
}

// Update patches status, note and assignee. Status transitions are
// unconstrained beyond enum membership; processingAt and replyDate are
// stamped the first time their status is reached and never overwritten.
func (m *Manager) Update(ctx context.Context, n int, req models.UpdateTicketRequest) (models.Ticket, error) {
	key := store.TicketKey(n)
	data, err := m.s.R.HGetAll(ctx, key).Result()
	if err != nil {
		return models.Ticket{}, err
	}
	if len(data) == 0 {
		return models.Ticket{}, ErrNotFound
	}

	fields := map[string]interface{}{}
	if req.Status != nil {
		if !models.IsValidStatus(*req.Status) {
			return models.Ticket{}, ErrInvalidStatus
		}
		fields["status"] = *req.Status
		if *req.Status == models.StatusProcessing && data["processingAt"] == "" {
			fields["processingAt"] = helper.NowISO()
		}
		if *req.Status == models.StatusReplied && data["replyDate"] == "" {
			fields["replyDate"] = helper.NowISO()
		}
	}
	if req.Note != nil {
		fields["note"] = *req.Note
	}
	if req.Assignee != nil {
		fields["assignee"] = *req.Assignee
	}

	if len(fields) > 0 {
		if err := m.s.R.HSet(ctx, key, fields).Err(); err != nil {
			return models.Ticket{}, err
		}
	}
	return m.Ticket(ctx, n)
}

// Delete removes one record and its list entry. Remaining tickets are
// not renumbered and the pointers stay put, so the freed number is never
// reissued.
func (m *Manager) Delete(ctx context.Context, n int) error {
	removed, err := m.s.R.Del(ctx, store.TicketKey(n)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return m.s.R.LRem(ctx, store.KeyQueueTickets, 0, n).Err()
}

// Reset wipes every ticket and restores the pointers to their initial
// values. Irreversible.
func (m *Manager) Reset(ctx context.Context) error {
	raw, err := m.s.R.LRange(ctx, store.KeyQueueTickets, 0, -1).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(raw)+1)
	for _, item := range raw {
		if n, err := strconv.Atoi(item); err == nil {
			keys = append(keys, store.TicketKey(n))
		}
	}
	keys = append(keys, store.KeyQueueTickets)
	if err := m.s.R.Del(ctx, keys...).Err(); err != nil {
		return err
	}

	return m.s.R.MSet(ctx,
		store.KeyQueueCurrent, 0,
		store.KeyQueueLast, 0,
		store.KeyQueueNext, 1,
	).Err()
}

func ticketFromHash(n int, data map[string]string) models.Ticket {
	status := data["status"]
	if status == "" {
		status = models.StatusPending
	}
	return models.Ticket{
		TicketNumber:           n,
		Applicant:              data["applicant"],
		CustomerName:           data["customerName"],
		CustomerRequirement:    data["customerRequirement"],
		MachineType:            data["machineType"],
		StartDate:              data["startDate"],
		ExpectedCompletionDate: data["expectedCompletionDate"],
		Fcst:                   data["fcst"],
		MassProductionDate:     data["massProductionDate"],
		Status:                 status,
		Note:                   data["note"],
		Assignee:               data["assignee"],
		CreatedAt:              data["createdAt"],
		ProcessingAt:           data["processingAt"],
		ReplyDate:              data["replyDate"],
	}
}

func toInt(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
