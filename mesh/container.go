package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/voxelsplace/vcache/vcache"
)

// Compression indicates the codec applied to the container payload.
type Compression uint8

const (
	CompNone Compression = 0
	CompZlib Compression = 1
	CompZstd Compression = 2
)

// ParseCompression maps "none", "zlib" and "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompNone, nil
	case "zlib":
		return CompZlib, nil
	case "zstd":
		return CompZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, zlib or zstd)", s)
	}
}

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompZlib:
		return "zlib"
	case CompZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Ordering records which optimizer produced the stored triangle order.
type Ordering uint8

const (
	OrderingNone   Ordering = 0
	OrderingGreedy Ordering = 1
	OrderingFifo   Ordering = 2
)

// OrderingOf maps an optimizer algorithm to the value stored in the header.
// The empty algorithm selects greedy, as in vcache.Options.
func OrderingOf(a vcache.Algorithm) Ordering {
	switch a {
	case vcache.AlgorithmGreedy, "":
		return OrderingGreedy
	case vcache.AlgorithmFifo:
		return OrderingFifo
	default:
		return OrderingNone
	}
}

func (o Ordering) String() string {
	switch o {
	case OrderingGreedy:
		return string(vcache.AlgorithmGreedy)
	case OrderingFifo:
		return string(vcache.AlgorithmFifo)
	default:
		return "input"
	}
}

const (
	magic      = "VCMB"
	version1   = 1
	headerSize = 4 + 1 + 1 + 1 + 1 + 4 + 4 + 8 + 4
)

var (
	ErrFormat   = errors.New("mesh: not a valid .vcm container")
	ErrChecksum = errors.New("mesh: payload checksum mismatch")
)

// Header holds the fixed fields of a .vcm file.
type Header struct {
	Ver         uint8
	Comp        Compression
	Ordering    Ordering
	VertexCount uint32
	IndexCount  uint32
	Checksum    uint64 // xxhash64 of the uncompressed payload
	PLen        uint32 // stored (possibly compressed) payload length
}

// Marshal encodes m as a .vcm container using the given codec.
func Marshal(m *Mesh, comp Compression, ordering Ordering) ([]byte, error) {
	if uint64(len(m.Vertices)) > math.MaxUint32 || uint64(len(m.Indices)) > math.MaxUint32 {
		return nil, fmt.Errorf("mesh too large for .vcm (%d vertices, %d indices)", len(m.Vertices), len(m.Indices))
	}

	raw := make([]byte, 0, len(m.Vertices)*13+len(m.Indices)*2)
	for _, v := range m.Vertices {
		for _, f := range v.Position {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(f))
		}
	}
	for _, v := range m.Vertices {
		raw = append(raw, v.Color)
	}
	raw = encodeIndices(raw, m.Indices)

	payload, err := compress(raw, comp)
	if err != nil {
		return nil, err
	}

	hdr := Header{
		Ver:         version1,
		Comp:        comp,
		Ordering:    ordering,
		VertexCount: uint32(len(m.Vertices)),
		IndexCount:  uint32(len(m.Indices)),
		Checksum:    xxhash.Sum64(raw),
		PLen:        uint32(len(payload)),
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(payload))
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, hdr.Ver)
	_ = binary.Write(&buf, binary.LittleEndian, uint8(hdr.Comp))
	_ = binary.Write(&buf, binary.LittleEndian, uint8(hdr.Ordering))
	_ = binary.Write(&buf, binary.LittleEndian, uint8(0)) // reserved
	_ = binary.Write(&buf, binary.LittleEndian, hdr.VertexCount)
	_ = binary.Write(&buf, binary.LittleEndian, hdr.IndexCount)
	_ = binary.Write(&buf, binary.LittleEndian, hdr.Checksum)
	_ = binary.Write(&buf, binary.LittleEndian, hdr.PLen)
	_, _ = buf.Write(payload)
	return buf.Bytes(), nil
}

// ParseHeader reads the fixed header and returns it with the stored payload slice.
func ParseHeader(data []byte) (Header, []byte, error) {
	var hdr Header
	if len(data) < headerSize || string(data[:4]) != magic {
		return hdr, nil, ErrFormat
	}
	r := bytes.NewReader(data[4:headerSize])
	var comp, ordering, reserved uint8
	fields := []any{&hdr.Ver, &comp, &ordering, &reserved, &hdr.VertexCount, &hdr.IndexCount, &hdr.Checksum, &hdr.PLen}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return hdr, nil, err
		}
	}
	hdr.Comp = Compression(comp)
	hdr.Ordering = Ordering(ordering)

	if hdr.Ver != version1 {
		return hdr, nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, hdr.Ver)
	}
	if uint64(len(data)-headerSize) != uint64(hdr.PLen) {
		return hdr, nil, fmt.Errorf("%w: payload length %d, header says %d", ErrFormat, len(data)-headerSize, hdr.PLen)
	}
	return hdr, data[headerSize:], nil
}

// Unmarshal decodes a .vcm container.
func Unmarshal(data []byte) (*Mesh, Header, error) {
	hdr, payload, err := ParseHeader(data)
	if err != nil {
		return nil, hdr, err
	}
	if hdr.IndexCount%3 != 0 {
		return nil, hdr, fmt.Errorf("%w: index count %d is not a multiple of 3", ErrFormat, hdr.IndexCount)
	}
	raw, err := decompress(payload, hdr.Comp, maxRawSize(hdr))
	if err != nil {
		return nil, hdr, err
	}
	if xxhash.Sum64(raw) != hdr.Checksum {
		return nil, hdr, ErrChecksum
	}

	vc := int(hdr.VertexCount)
	if len(raw) < vc*13 {
		return nil, hdr, fmt.Errorf("%w: %v", ErrFormat, io.ErrUnexpectedEOF)
	}
	m := &Mesh{Vertices: make([]Vertex, vc)}
	pos := 0
	for i := range m.Vertices {
		for k := 0; k < 3; k++ {
			m.Vertices[i].Position[k] = math.Float32frombits(binary.LittleEndian.Uint32(raw[pos:]))
			pos += 4
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Color = raw[pos]
		pos++
	}

	m.Indices, err = decodeIndices(raw, &pos, int(hdr.IndexCount))
	if err != nil {
		return nil, hdr, fmt.Errorf("%w: indices: %v", ErrFormat, err)
	}
	if pos != len(raw) {
		return nil, hdr, fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(raw)-pos)
	}
	for i, v := range m.Indices {
		if v >= hdr.VertexCount {
			return nil, hdr, fmt.Errorf("%w: index %d references vertex %d of %d", ErrFormat, i, v, hdr.VertexCount)
		}
	}
	return m, hdr, nil
}

// zstdMinWindow keeps the decoder limit above the window small frames declare.
const zstdMinWindow = 64 << 10

// maxRawSize bounds the uncompressed payload: 13 bytes per vertex and at most 5 per varint index.
func maxRawSize(hdr Header) int64 {
	return int64(hdr.VertexCount)*13 + int64(hdr.IndexCount)*5
}

// Save writes m to filename as a .vcm container.
func Save(m *Mesh, filename string, comp Compression, ordering Ordering) error {
	data, err := Marshal(m, comp, ordering)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// Load reads and decodes a .vcm file.
func Load(filename string) (*Mesh, Header, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, Header{}, err
	}
	return Unmarshal(data)
}

func compress(raw []byte, comp Compression) ([]byte, error) {
	switch comp {
	case CompNone:
		return raw, nil
	case CompZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression %d", ErrFormat, comp)
	}
}

// decompress inflates payload, failing once the output would exceed limit bytes.
func decompress(payload []byte, comp Compression, limit int64) ([]byte, error) {
	switch comp {
	case CompNone:
		return payload, nil
	case CompZlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		raw, err := io.ReadAll(io.LimitReader(zr, limit+1))
		if err != nil {
			return nil, err
		}
		if int64(len(raw)) > limit {
			return nil, fmt.Errorf("%w: payload inflates past %d bytes", ErrFormat, limit)
		}
		return raw, nil
	case CompZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(max(limit, zstdMinWindow))))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression %d", ErrFormat, comp)
	}
}
