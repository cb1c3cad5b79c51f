package buildmap

import (
	"io"
)

// TaggedItemSize is the encoded size of a tag triple.
const TaggedItemSize = 6

// TaggedItem holds the tags the game scripts use to hook sectors, walls and sprites to effects.
// A zero tag means unused.
type TaggedItem struct {
	LowTag  uint16 `json:"lowTag"`
	HighTag uint16 `json:"highTag"`
	Extra   uint16 `json:"extra"`
}

type binTags struct {
	LowTag, HighTag, Extra uint16
}

func (t TaggedItem) HasLowTag() bool  { return t.LowTag != 0 }
func (t TaggedItem) HasHighTag() bool { return t.HighTag != 0 }

func (t TaggedItem) bin() binTags { return binTags(t) }

// ReadTaggedItem reads low tag, high tag and extra in that order.
func ReadTaggedItem(r io.Reader) (TaggedItem, error) {
	var b binTags
	if err := readLE(r, &b); err != nil {
		return TaggedItem{}, err
	}
	return TaggedItem(b), nil
}

// Encode writes the tag triple.
func (t TaggedItem) Encode(w io.Writer) error {
	return writeLE(w, t.bin())
}

// parseTaggedItem reads the tag properties that sit directly on the owning entity's JSON object.
func parseTaggedItem(o *jsonObject) (TaggedItem, error) {
	var t TaggedItem
	var err error
	if t.LowTag, err = jsonInteger[uint16](o, "lowTag"); err != nil {
		return TaggedItem{}, err
	}
	if t.HighTag, err = jsonInteger[uint16](o, "highTag"); err != nil {
		return TaggedItem{}, err
	}
	if t.Extra, err = jsonInteger[uint16](o, "extra"); err != nil {
		return TaggedItem{}, err
	}
	return t, nil
}

func (t *TaggedItem) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("tags", data)
	if err != nil {
		return err
	}
	tags, err := parseTaggedItem(o)
	if err == nil {
		err = o.close()
	}
	if err != nil {
		logger.Error().Err(err).Msg("Invalid tags")
		return err
	}
	*t = tags
	return nil
}
