package buildmap

import (
	"io"
)

// TexturedItemSize is the encoded size of a standalone texture reference.
const TexturedItemSize = 4

// TexturedItem references an ART tile together with its lighting and palette remap.
type TexturedItem struct {
	TileNumber               uint16 `json:"tileNumber"`
	Shade                    int8   `json:"shade"`
	PaletteLookupTableNumber uint8  `json:"paletteLookupTableNumber"`
}

type binTexture struct {
	TileNumber               uint16
	Shade                    int8
	PaletteLookupTableNumber uint8
}

// ReadTexturedItem reads tile number, shade and palette index in that order. Entities embed the
// three fields at layout specific offsets instead.
func ReadTexturedItem(r io.Reader) (TexturedItem, error) {
	var b binTexture
	if err := readLE(r, &b); err != nil {
		return TexturedItem{}, err
	}
	return TexturedItem(b), nil
}

// Encode writes the texture reference.
func (t TexturedItem) Encode(w io.Writer) error {
	return writeLE(w, binTexture(t))
}

func parseTexturedItem(o *jsonObject) (TexturedItem, error) {
	var t TexturedItem
	var err error
	if t.TileNumber, err = jsonInteger[uint16](o, "tileNumber"); err != nil {
		return TexturedItem{}, err
	}
	if t.Shade, err = jsonInteger[int8](o, "shade"); err != nil {
		return TexturedItem{}, err
	}
	if t.PaletteLookupTableNumber, err = jsonInteger[uint8](o, "paletteLookupTableNumber"); err != nil {
		return TexturedItem{}, err
	}
	return t, nil
}

func (t *TexturedItem) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("texture", data)
	if err != nil {
		return err
	}
	texture, err := parseTexturedItem(o)
	if err == nil {
		err = o.close()
	}
	if err != nil {
		logger.Error().Err(err).Msg("Invalid texture")
		return err
	}
	*t = texture
	return nil
}
