package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Internal        Category = "Internal"
	RabbitMQ        Category = "RabbitMQ"
	WebSocket       Category = "WebSocket"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup      SubCategory = "Startup"
	Shutdown     SubCategory = "Shutdown"
	RateLimiting SubCategory = "RateLimiting"
	Tracing      SubCategory = "Tracing"
	Recovery     SubCategory = "Recovery"

	// RabbitMQ
	Publish SubCategory = "Publish"

	// WebSocket
	Session SubCategory = "Session"
	Frame   SubCategory = "Frame"
	Upgrade SubCategory = "Upgrade"

	// RequestResponse
	Request SubCategory = "Request"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	SessionID    ExtraKey = "SessionId"
	ItineraryID  ExtraKey = "ItineraryId"
	Exchange     ExtraKey = "Exchange"
	RoutingKey   ExtraKey = "RoutingKey"
	MessageID    ExtraKey = "MessageId"
	ErrorMessage ExtraKey = "ErrorMessage"
)
