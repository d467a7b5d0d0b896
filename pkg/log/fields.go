package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID = "user_id"
	FieldEmail  = "email"

	// Service
	FieldService = "service"

	// WebSocket
	FieldConnID      = "conn_id"
	FieldDestination = "destination"

	// Domain
	FieldTicketID  = "ticket_id"
	FieldSessionID = "session_id"
	FieldMessageID = "message_id"
	FieldExpertID  = "expert_id"
)
