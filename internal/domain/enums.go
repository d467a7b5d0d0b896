package domain

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen               TicketStatus = "OPEN"
	TicketInProgress         TicketStatus = "IN_PROGRESS"
	TicketWaitingForCustomer TicketStatus = "WAITING_FOR_CUSTOMER"
	TicketWaitingForExpert   TicketStatus = "WAITING_FOR_EXPERT"
	TicketResolved           TicketStatus = "RESOLVED"
	TicketClosed             TicketStatus = "CLOSED"
	TicketCancelled          TicketStatus = "CANCELLED"
)

// TicketPriority orders tickets for triage.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
	PriorityUrgent TicketPriority = "URGENT"
)

// ChatSessionType distinguishes the kinds of chat a session backs.
type ChatSessionType string

const (
	SessionUserExpert          ChatSessionType = "USER_EXPERT"
	SessionUserAI              ChatSessionType = "USER_AI"
	SessionGroup               ChatSessionType = "GROUP"
	SessionTicketRelated       ChatSessionType = "TICKET_RELATED"
	SessionConsultationRelated ChatSessionType = "CONSULTATION_RELATED"
)

// MessageType categorizes a chat message's content.
type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageImage  MessageType = "IMAGE"
	MessageFile   MessageType = "FILE"
	MessageSystem MessageType = "SYSTEM"
	MessageAI     MessageType = "AI"
)

// ConsultationStatus is the lifecycle state of a booked consultation.
type ConsultationStatus string

const (
	ConsultationScheduled ConsultationStatus = "SCHEDULED"
	ConsultationCompleted ConsultationStatus = "COMPLETED"
	ConsultationCancelled ConsultationStatus = "CANCELLED"
)

// NotificationType tags notifications pushed over the broker.
type NotificationType string

const (
	NotifyTicketCreated       NotificationType = "TICKET_CREATED"
	NotifyTicketAssigned      NotificationType = "TICKET_ASSIGNED"
	NotifyTicketStatusChanged NotificationType = "TICKET_STATUS_CHANGED"
	NotifyChatMessage         NotificationType = "CHAT_MESSAGE"
	NotifyConsultationBooked  NotificationType = "CONSULTATION_BOOKED"
	NotifySystem              NotificationType = "SYSTEM"
)
