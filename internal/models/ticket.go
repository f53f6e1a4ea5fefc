package models

// Ticket statuses. Any status may be edited to any other; only enum
// membership is validated.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReplied    = "replied"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReplied, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Ticket struct {
	TicketNumber           int    `json:"ticketNumber"`
	Applicant              string `json:"applicant"`
	CustomerName           string `json:"customerName"`
	CustomerRequirement    string `json:"customerRequirement"`
	MachineType            string `json:"machineType"`
	StartDate              string `json:"startDate"`
	ExpectedCompletionDate string `json:"expectedCompletionDate"`
	Fcst                   string `json:"fcst"`
	MassProductionDate     string `json:"massProductionDate"`
	Status                 string `json:"status"`
	Note                   string `json:"note"`
	Assignee               string `json:"assignee"`
	CreatedAt              string `json:"createdAt"`
	ProcessingAt           string `json:"processingAt,omitempty"`
	ReplyDate              string `json:"replyDate,omitempty"`
}

// TicketView adds the values derived at read time. None of these are
// stored; isCalled can be inconsistent after an admin force-set and
// callers must tolerate that.
type TicketView struct {
	Ticket
	IsCurrent      bool `json:"isCurrent"`
	IsCalled       bool `json:"isCalled"`
	DaysWaiting    int  `json:"daysWaiting"`
	DaysProcessing int  `json:"daysProcessing"`
	DaysSinceReply int  `json:"daysSinceReply"`
}

// QueueState - the three pointers describing service progress, one per
// deployment.
type QueueState struct {
	CurrentNumber int `json:"currentNumber"`
	LastTicket    int `json:"lastTicket"`
	NextNumber    int `json:"nextNumber"`
}

type CreateTicketRequest struct {
	Applicant              string `json:"applicant"`
	CustomerName           string `json:"customerName"`
	CustomerRequirement    string `json:"customerRequirement"`
	MachineType            string `json:"machineType"`
	StartDate              string `json:"startDate"`
	ExpectedCompletionDate string `json:"expectedCompletionDate"`
	Fcst                   string `json:"fcst"`
	MassProductionDate     string `json:"massProductionDate"`
}

type UpdateTicketRequest struct {
	Status   *string `json:"status"`
	Note     *string `json:"note"`
	Assignee *string `json:"assignee"`
}

type UpdateStateRequest struct {
	CurrentNumber *int `json:"currentNumber"`
	NextNumber    *int `json:"nextNumber"`
	LastTicket    *int `json:"lastTicket"`
}
