// Package router decides whether a user message asks for an image or for a chat reply.
package router

import (
	"strings"

	"github.com/diogo/megamente/internal/models"
)

// triggerPhrases are matched in order, case-insensitively, as plain substrings.
var triggerPhrases = []string{
	"gere uma imagem",
	"crie uma imagem",
	"desenhe",
	"gerar imagem",
	"gera uma imagem",
	"faça um desenho",
	"crie um desenho",
	"gerar foto",
	"crie uma foto",
	"gera imagem",
}

// ImagePromptPrefix pre-fills the composer when the user asks for an image explicitly.
const ImagePromptPrefix = "Gere uma imagem de "

// Match returns the first trigger phrase contained in text.
func Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range triggerPhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// Classify returns KindImage when text contains a trigger phrase, KindText otherwise.
func Classify(text string) models.Kind {
	if _, ok := Match(text); ok {
		return models.KindImage
	}
	return models.KindText
}
