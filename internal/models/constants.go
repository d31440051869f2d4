// Package models contains data types and constants for megamente.
package models

// Default Gemini models
const (
	DefaultChatModel  = "gemini-3-flash-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// Model describes a Gemini model selectable from the configuration
type Model struct {
	Name        string
	Description string
	Images      bool // produces inline images
}

// Available models
var (
	ModelFlashPreview = Model{Name: DefaultChatModel, Description: "Fast chat model"}
	Model25Flash      = Model{Name: "gemini-2.5-flash", Description: "Stable chat model"}
	Model25Pro        = Model{Name: "gemini-2.5-pro", Description: "Higher quality chat model"}
	ModelFlashImage   = Model{Name: DefaultImageModel, Description: "Image generation", Images: true}
)

// AllModels returns a list of all known models
func AllModels() []Model {
	return []Model{ModelFlashPreview, Model25Flash, Model25Pro, ModelFlashImage}
}

// ModelFromName returns a Model by its name.
// Unknown names are accepted as-is so newer models work without a release.
func ModelFromName(name string) Model {
	for _, m := range AllModels() {
		if m.Name == name {
			return m
		}
	}
	return Model{Name: name}
}

// TitleMaxLen is the longest title shown untouched; longer inputs are cut
// to TitleMaxLen-3 characters followed by an ellipsis.
const TitleMaxLen = 30
