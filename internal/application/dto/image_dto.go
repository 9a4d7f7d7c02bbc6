package dto

import "github.com/turtacn/genguard/internal/domain/models"

// CreateImageRequest is the create-image body.
type CreateImageRequest struct {
	RawPrompt string `json:"rawPrompt" validate:"notblank,max=1000"`
	// Source is "custom" for typed prompts and "suggestion" for prompts that
	// came from generate-suggestion. Only custom prompts are optimised.
	Source string `json:"source" validate:"omitempty,oneof=custom suggestion"`
}

// CreateImageResponse describes the stored image.
type CreateImageResponse struct {
	Filename string   `json:"filename"`
	URL      string   `json:"url,omitempty"`
	Sizes    []string `json:"sizes"`
	Prompt   string   `json:"prompt"`
}

// NewCreateImageResponse converts the upstream descriptor.
func NewCreateImageResponse(img *models.GeneratedImage, prompt string) *CreateImageResponse {
	sizes := img.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	return &CreateImageResponse{
		Filename: img.Filename,
		URL:      img.URL,
		Sizes:    sizes,
		Prompt:   prompt,
	}
}

// SuggestionResponse is the generate-suggestion body.
type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
}
