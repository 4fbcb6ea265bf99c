package wire

import (
	"bytes"
	"errors"
	"io"

	ns "github.com/go-mclib/protocol/java_protocol/net_structures"
)

// maxVarIntLen is the longest encoding of a 32-bit VarInt.
const maxVarIntLen = 5

var errVarIntTooLong = errors.New("wire: varint longer than 5 bytes")

// varInt is a VarInt field coded with the protocol net structures. It plugs
// into pk.Marshal and Packet.Scan.
type varInt int32

func (v varInt) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := ns.VarInt(v).Encode(&buf); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom collects the bytes of one VarInt, then decodes them.
func (v *varInt) ReadFrom(r io.Reader) (int64, error) {
	raw := make([]byte, 0, maxVarIntLen)
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return int64(len(raw)), err
		}
		raw = append(raw, b[0])
		if b[0]&0x80 == 0 {
			break
		}
		if len(raw) == maxVarIntLen {
			return int64(len(raw)), errVarIntTooLong
		}
	}

	x, err := ns.NewReader(raw).ReadVarInt()
	if err != nil {
		return int64(len(raw)), err
	}
	*v = varInt(x)
	return int64(len(raw)), nil
}
