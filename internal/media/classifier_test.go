package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crmconsole/backend/internal/media"
	"crmconsole/backend/internal/models"
)

// TestClassifyPrecedence verifies the fixed precedence order of the
// classifier: tag checks first, then extension checks, then embedded JSON.
func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		content string
		tags    models.TagSet
		want    media.Kind
	}{
		{
			name:    "audio tag wins over everything",
			content: "https://cdn.example.com/clip.mp4",
			tags:    models.TagSet{Audio: true, Video: true},
			want:    media.KindAudio,
		},
		{
			name:    "fotos tag with jpg extension",
			content: "https://cdn.example.com/photo.JPG",
			tags:    models.TagSet{Fotos: true},
			want:    media.KindImage,
		},
		{
			name:    "fotos tag with jpeg extension",
			content: "https://cdn.example.com/photo.jpeg?token=abc",
			tags:    models.TagSet{Fotos: true},
			want:    media.KindImage,
		},
		{
			name:    "fotos tag without image extension falls through",
			content: "just text",
			tags:    models.TagSet{Fotos: true},
			want:    media.KindNone,
		},
		{
			name:    "fotos tag beats video tag when extension matches",
			content: "https://cdn.example.com/a.png",
			tags:    models.TagSet{Fotos: true, Video: true},
			want:    media.KindImage,
		},
		{
			name:    "video tag",
			content: "anything",
			tags:    models.TagSet{Video: true},
			want:    media.KindVideo,
		},
		{
			name:    "mp4 extension without tags",
			content: "https://cdn.example.com/reel.MP4",
			want:    media.KindVideo,
		},
		{
			name:    "pdf extension",
			content: "https://cdn.example.com/invoice.pdf",
			want:    media.KindDocument,
		},
		{
			name:    "doc extension",
			content: "https://cdn.example.com/contract.doc",
			want:    media.KindDocument,
		},
		{
			name:    "docx extension",
			content: "https://cdn.example.com/contract.DOCX",
			want:    media.KindDocument,
		},
		{
			name:    "plain text",
			content: "hola, necesito ayuda",
			want:    media.KindNone,
		},
		{
			name:    "empty content",
			content: "",
			want:    media.KindNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, media.Classify(tt.content, tt.tags))
		})
	}
}

// TestClassifyEmbeddedJSON verifies the one-level recursion over media
// flags embedded in JSON content.
func TestClassifyEmbeddedJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    media.Kind
	}{
		{
			name:    "embedded audio flag",
			content: `{"content":"https://cdn.example.com/voice.ogg","tags":{"audio":true}}`,
			want:    media.KindAudio,
		},
		{
			name:    "embedded video flag",
			content: `{"content":"https://cdn.example.com/v","tags":{"video":true}}`,
			want:    media.KindVideo,
		},
		{
			name:    "embedded imagen flag with image url",
			content: `{"url":"https://cdn.example.com/pic.png","tags":{"imagen":true}}`,
			want:    media.KindImage,
		},
		{
			name:    "embedded imagen flag without image url",
			content: `{"content":"plain","tags":{"imagen":true}}`,
			want:    media.KindNone,
		},
		{
			name:    "json without media flags is text",
			content: `{"foo":"bar"}`,
			want:    media.KindNone,
		},
		{
			name:    "malformed json degrades to text",
			content: `{"tags":{"audio":true`,
			want:    media.KindNone,
		},
		{
			name:    "json array is text",
			content: `[1,2,3]`,
			want:    media.KindNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, media.Classify(tt.content, models.TagSet{}))
		})
	}
}

// TestClassifyIsPure calls the classifier twice on the same input and
// expects identical results; ties must resolve identically on every call.
func TestClassifyIsPure(t *testing.T) {
	content := `{"content":"https://cdn.example.com/pic.jpg","tags":{"imagen":true}}`
	first := media.Classify(content, models.TagSet{})
	second := media.Classify(content, models.TagSet{})
	assert.Equal(t, first, second)
	assert.Equal(t, media.KindImage, first)
}
