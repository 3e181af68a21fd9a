package collection

import "encoding/binary"

// binaryBuffer is a small growable, chainable byte-buffer writer/reader used
// to frame the collection snapshot file. Adapted from the teacher's
// internal/common.BinaryBuffer, trimmed to the primitives the snapshot codec
// actually needs (uint32 and length-prefixed byte slices) since this store's
// on-disk format has no need for the teacher's full numeric-type zoo.
type binaryBuffer struct {
	buf    *[]byte
	offset uint64
}

func newBinaryBuffer(initialSize int) *binaryBuffer {
	buf := make([]byte, 0, initialSize)
	return &binaryBuffer{buf: &buf}
}

func newBinaryBufferFrom(buf []byte) *binaryBuffer {
	return &binaryBuffer{buf: &buf}
}

func (b *binaryBuffer) ensureCapacity(n uint64) {
	required := b.offset + n
	if uint64(cap(*b.buf)) < required {
		newCap := uint64(cap(*b.buf)) * 2
		if newCap < required {
			newCap = required
		}
		newBuf := make([]byte, len(*b.buf), newCap)
		copy(newBuf, *b.buf)
		*b.buf = newBuf
	}
	if uint64(len(*b.buf)) < required {
		*b.buf = (*b.buf)[:required]
	}
}

func (b *binaryBuffer) bytes() []byte {
	return (*b.buf)[:b.offset]
}

func (b *binaryBuffer) writeUint32(value uint32) *binaryBuffer {
	b.ensureCapacity(4)
	binary.BigEndian.PutUint32((*b.buf)[b.offset:], value)
	b.offset += 4
	return b
}

func (b *binaryBuffer) readUint32() uint32 {
	v := binary.BigEndian.Uint32((*b.buf)[b.offset:])
	b.offset += 4
	return v
}

func (b *binaryBuffer) writeBytes(value []byte) *binaryBuffer {
	b.writeUint32(uint32(len(value)))
	b.ensureCapacity(uint64(len(value)))
	copy((*b.buf)[b.offset:], value)
	b.offset += uint64(len(value))
	return b
}

func (b *binaryBuffer) readBytes() []byte {
	length := b.readUint32()
	start := b.offset
	end := start + uint64(length)
	out := (*b.buf)[start:end]
	b.offset = end
	return out
}

func (b *binaryBuffer) writeString(value string) *binaryBuffer {
	return b.writeBytes([]byte(value))
}

func (b *binaryBuffer) readString() string {
	return string(b.readBytes())
}
