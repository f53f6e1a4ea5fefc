package handler

import (
	"backend-ticketing/internal/audit"
	"backend-ticketing/internal/queue"
	"backend-ticketing/internal/rfq"
	"backend-ticketing/internal/users"
)

// Handler bundles the managers every endpoint works against. State is
// only ever mutated through them.
type Handler struct {
	Queue   *queue.Manager
	RFQ     *rfq.Manager
	Users   *users.Store
	Audit   *audit.Logger
	Display *DisplayHub
}

func New(q *queue.Manager, r *rfq.Manager, u *users.Store, a *audit.Logger) *Handler {
	return &Handler{
		Queue:   q,
		RFQ:     r,
		Users:   u,
		Audit:   a,
		Display: NewDisplayHub(q),
	}
}
