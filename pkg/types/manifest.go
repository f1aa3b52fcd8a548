package types

// FieldSpec describes one declared input or output field of a command.
type FieldSpec struct {
	// Field name inside the request/response envelope.
	// example: photo
	Name string `json:"name" example:"photo"`
	// Declared type tag (text, number, boolean, image, vector).
	// example: image
	Type string `json:"type" example:"image"`
	// Target width for image fields, 0 when unconstrained.
	// example: 224
	Width int `json:"width,omitempty" example:"224"`
	// Target height for image fields, 0 when unconstrained.
	// example: 224
	Height int `json:"height,omitempty" example:"224"`
	// Fixed length for vector fields, 0 when unconstrained.
	// example: 1000
	Length int `json:"length,omitempty" example:"1000"`
}

// CommandManifest describes a registered command.
type CommandManifest struct {
	// Command name; the invocation path is POST /v1/commands/{name}.
	// example: classify
	Name string `json:"name" example:"classify"`
	// Declared input fields.
	Inputs []FieldSpec `json:"inputs"`
	// Declared output fields.
	Outputs []FieldSpec `json:"outputs"`
}

// ManifestResponse wraps the command list returned by GET /v1/commands.
type ManifestResponse struct {
	// Registered commands sorted by name.
	Commands []CommandManifest `json:"commands"`
}
