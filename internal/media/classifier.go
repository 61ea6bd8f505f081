// Package media classifies message content into its media kind.
package media

import (
	"encoding/json"
	"regexp"

	"crmconsole/backend/internal/models"
)

// Kind is the media kind of a message. The zero value means plain text.
type Kind string

const (
	KindNone     Kind = ""
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

var (
	imageExtRe = regexp.MustCompile(`(?i)\.(jpe?g|png)\b`)
	mp4Re      = regexp.MustCompile(`(?i)\.mp4\b`)
	pdfRe      = regexp.MustCompile(`(?i)\.pdf\b`)
	docRe      = regexp.MustCompile(`(?i)\.docx?\b`)
)

// embeddedPayload is the JSON shape some automation rows carry in their
// content: the real asset URL plus its media flags.
type embeddedPayload struct {
	Content string `json:"content"`
	URL     string `json:"url"`
	Tags    struct {
		Imagen bool `json:"imagen"`
		Audio  bool `json:"audio"`
		Video  bool `json:"video"`
	} `json:"tags"`
}

// Classify determines the media kind of a message from its content and tag
// metadata. The precedence is fixed; ties must resolve identically on every
// call. It is pure and total: malformed JSON content degrades to plain text.
func Classify(content string, tags models.TagSet) Kind {
	return classify(content, tags, 0)
}

func classify(content string, tags models.TagSet, depth int) Kind {
	switch {
	case tags.Audio:
		return KindAudio
	case tags.Fotos && imageExtRe.MatchString(content):
		return KindImage
	case tags.Video:
		return KindVideo
	case mp4Re.MatchString(content):
		return KindVideo
	case pdfRe.MatchString(content):
		return KindDocument
	case docRe.MatchString(content):
		return KindDocument
	}

	// Some rows arrive with their media flags embedded in JSON content.
	// One level of recursion resolves them; anything unparseable is text.
	if depth == 0 {
		var p embeddedPayload
		if err := json.Unmarshal([]byte(content), &p); err == nil {
			if p.Tags.Imagen || p.Tags.Audio || p.Tags.Video {
				inner := p.Content
				if inner == "" {
					inner = p.URL
				}
				return classify(inner, models.TagSet{
					Audio: p.Tags.Audio,
					Video: p.Tags.Video,
					Fotos: p.Tags.Imagen,
				}, depth+1)
			}
		}
	}

	return KindNone
}
