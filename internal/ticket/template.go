package ticket

import (
	"encoding/binary"
	"fmt"
	"os"

	"cifinalize/internal/pendingdb"
)

// Ticket layout offsets. These are part of the console's ticket format.
const (
	Size                 = 0x350
	signatureTypeOffset  = 0x000
	issuerOffset         = 0x140
	formatVersionOffset  = 0x1BC
	TitleIDOffset        = 0x1DC
	CommonKeyIndexOffset = 0x1F1
)

const (
	signatureTypeRSA2048SHA256 = 0x00010004
	defaultIssuer              = "Root-CA00000003-XS0000000c"
	formatVersion              = 1
)

// Template is the base ticket every installed ticket is derived from.
type Template struct {
	data [Size]byte
}

// NewTemplate validates raw and copies it into a Template.
func NewTemplate(raw []byte) (*Template, error) {
	if len(raw) != Size {
		return nil, fmt.Errorf("ticket template must be exactly %#x bytes, got %#x", Size, len(raw))
	}
	t := &Template{}
	copy(t.data[:], raw)
	return t, nil
}

// LoadTemplate reads a template from disk.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ticket template: %w", err)
	}
	t, err := NewTemplate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// DefaultTemplate returns a blank retail-style ticket with the signature
// type, issuer and format version filled in.
func DefaultTemplate() *Template {
	t := &Template{}
	binary.BigEndian.PutUint32(t.data[signatureTypeOffset:], signatureTypeRSA2048SHA256)
	copy(t.data[issuerOffset:], defaultIssuer)
	t.data[formatVersionOffset] = formatVersion
	return t
}

// Bytes returns a copy of the template contents.
func (t *Template) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, t.data[:])
	return out
}

// Patch returns a ticket for entry. The template itself is never modified.
func (t *Template) Patch(entry pendingdb.Entry) []byte {
	blob := t.Bytes()
	binary.BigEndian.PutUint64(blob[TitleIDOffset:], entry.TitleID)
	if entry.SourceVersion == pendingdb.VersionLegacy {
		blob[CommonKeyIndexOffset] = entry.CommonKeyIndex
	}
	return blob
}

// TitleIDOf reads the title id from a ticket blob.
func TitleIDOf(blob []byte) (uint64, error) {
	if len(blob) != Size {
		return 0, fmt.Errorf("ticket must be %#x bytes, got %#x", Size, len(blob))
	}
	return binary.BigEndian.Uint64(blob[TitleIDOffset:]), nil
}
