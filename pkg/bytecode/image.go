package bytecode

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// imageMagic prefixes every encoded program; the last byte is the format version.
var imageMagic = []byte{'B', 'V', 'M', 1}

var ErrBadImage = errors.New("not a bytevm image")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalProgram serializes an assembled program to an image.
func MarshalProgram(p *Program) ([]byte, error) {
	body, err := cborEncMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal program: %w", err)
	}

	out := make([]byte, 0, len(imageMagic)+len(body))
	out = append(out, imageMagic...)
	return append(out, body...), nil
}

// UnmarshalProgram deserializes an image produced by MarshalProgram.
func UnmarshalProgram(data []byte) (*Program, error) {
	if !bytes.HasPrefix(data, imageMagic) {
		return nil, ErrBadImage
	}

	var p Program
	if err := cbor.Unmarshal(data[len(imageMagic):], &p); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	if p.Functions == nil {
		p.Functions = make(Functions)
	}
	return &p, nil
}
