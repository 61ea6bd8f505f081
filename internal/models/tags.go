package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// TagSet is the tag metadata attached to a message. It is stored as a JSONB
// column. The three boolean media flags mark rows produced by an upload
// (audio note, video, photo batch); Imagen marks a single automation image.
// Response is an optional back-reference to the message being replied to.
type TagSet struct {
	Audio    bool  `json:"audio,omitempty"`
	Video    bool  `json:"video,omitempty"`
	Fotos    bool  `json:"fotos,omitempty"`
	Imagen   bool  `json:"imagen,omitempty"`
	Response *uint `json:"response,omitempty"`
}

// HasEchoSource reports whether the row can be followed by a transcription
// echo: the upstream automation mirrors imagen/audio/fotos rows back as a
// spurious plain-text human row.
func (t TagSet) HasEchoSource() bool {
	return t.Imagen || t.Audio || t.Fotos
}

// IsZero reports whether no flag and no back-reference is set.
func (t TagSet) IsZero() bool {
	return !t.Audio && !t.Video && !t.Fotos && !t.Imagen && t.Response == nil
}

// Value serializes the tag set for the database.
func (t TagSet) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the tag set from the database.
func (t *TagSet) Scan(src interface{}) error {
	if src == nil {
		*t = TagSet{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported tags column type %T", src)
	}
}
