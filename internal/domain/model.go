// File: internal/domain/model.go
package domain

// ModalityLanguage marks conversational text-generation models.
const ModalityLanguage = "language"

// ModelPricing is the per-token price the gateway advertises, kept as
// strings because gateways report them as decimal strings.
type ModelPricing struct {
	Input  string `json:"input,omitempty"`
	Output string `json:"output,omitempty"`
}

// ModelInfo is one callable model in the gateway's directory.
type ModelInfo struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Modality      string        `json:"modality"`
	Description   string        `json:"description,omitempty"`
	OwnedBy       string        `json:"ownedBy,omitempty"`
	ContextWindow int           `json:"contextWindow,omitempty"`
	Pricing       *ModelPricing `json:"pricing,omitempty"`
}
