package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: field "photo": not valid base64
	Error string `json:"error" example:"field \"photo\": not valid base64"`
	// Stable machine-readable error kind.
	// example: invalid_input
	Kind string `json:"kind,omitempty" example:"invalid_input"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall server state (loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Identifier of the checkpoint the model was set up with, if any.
	// example: squeezenet_v1.1.onnx
	Checkpoint string `json:"checkpoint,omitempty" example:"squeezenet_v1.1.onnx"`
	// Duration of the one-time setup phase in milliseconds.
	// example: 842
	SetupMillis int64 `json:"setup_ms" example:"842"`
	// Number of registered commands.
	// example: 2
	Commands int `json:"commands" example:"2"`
	// Total command invocations since start.
	// example: 1042
	InvocationsTotal uint64 `json:"invocations_total" example:"1042"`
	// Invocations that ended in an error response.
	// example: 3
	FailuresTotal uint64 `json:"failures_total" example:"3"`
	// Requests currently executing a handler.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Requests waiting for a queue slot.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Maximum queued invocations before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Whether handler invocations are serialized through a single slot.
	// example: true
	Serialized bool `json:"serialized" example:"true"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Deploy manifest summary, when a manifest file was provided.
	Deploy *DeploySummary `json:"deploy,omitempty"`
	// Optional top-level error message.
	Error string `json:"error,omitempty"`
}

// DeploySummary echoes the declared build/deploy document. The build system
// itself is external; these fields are informational only.
type DeploySummary struct {
	// Declared runtime version.
	// example: python=3.6
	Runtime string `json:"runtime,omitempty" example:"python=3.6"`
	// Declared accelerator requirement.
	// example: gpu
	Accelerator string `json:"accelerator,omitempty" example:"gpu"`
	// Entrypoint command used to launch this server.
	// example: modelkit serve
	Entrypoint string `json:"entrypoint,omitempty" example:"modelkit serve"`
	// Number of declared build steps.
	// example: 3
	BuildSteps int `json:"build_steps" example:"3"`
}
