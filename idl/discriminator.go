package idl

import "fmt"

// Discriminator is the fixed-size tag an IDL attaches to a declaration.
// Anchor IDLs spell it as an array of byte values, which is not the JSON
// encoding Go uses for []byte, hence the custom unmarshalling.
type Discriminator []byte

func (d *Discriminator) UnmarshalJSON(data []byte) error {
	var raw []uint16
	if err := fasterJson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("discriminator must be an array of byte values: %w", err)
	}
	out := make([]byte, len(raw))
	for i, v := range raw {
		if v > 0xff {
			return fmt.Errorf("discriminator byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*d = out
	return nil
}

func (d Discriminator) MarshalJSON() ([]byte, error) {
	raw := make([]uint16, len(d))
	for i, v := range d {
		raw[i] = uint16(v)
	}
	return fasterJson.Marshal(raw)
}
