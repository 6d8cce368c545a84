package mesh

import "io"

func writeUVarint(dst []byte, x uint32) []byte {
	v := x
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	dst = append(dst, byte(v))
	return dst
}

func readUVarint(src []byte, pos *int) (uint32, error) {
	var x uint32
	var s uint32
	i := *pos
	for {
		if i >= len(src) {
			return 0, io.ErrUnexpectedEOF
		}
		b := src[i]
		i++
		if b < 0x80 {
			if s == 28 && b > 0x0F {
				return 0, io.ErrUnexpectedEOF
			}
			x |= uint32(b) << s
			break
		}
		x |= uint32(b&0x7F) << s
		s += 7
		if s > 28 {
			return 0, io.ErrUnexpectedEOF
		}
	}
	*pos = i
	return x, nil
}

// encodeIndices writes each index as the zigzag varint of its difference to the previous one.
// Cache-optimized buffers revisit recent vertices, so most deltas fit in one byte.
func encodeIndices(dst []byte, indices []uint32) []byte {
	var prev uint32
	for _, idx := range indices {
		d := int32(idx - prev)
		dst = writeUVarint(dst, uint32(d<<1)^uint32(d>>31))
		prev = idx
	}
	return dst
}

func decodeIndices(src []byte, pos *int, count int) ([]uint32, error) {
	// every index takes at least one byte
	if count < 0 || count > len(src)-*pos {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]uint32, count)
	var prev uint32
	for i := range out {
		z, err := readUVarint(src, pos)
		if err != nil {
			return nil, err
		}
		d := int32(z>>1) ^ -int32(z&1)
		prev += uint32(d)
		out[i] = prev
	}
	return out, nil
}
