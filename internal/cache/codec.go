package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

// Version is the encoding version written by [Encode].
const Version byte = 1

var magic = []byte("MCBR")

// header is magic + version; trailer is the CRC-32.
const (
	headerLen  = 5
	trailerLen = 4
)

// Encode serializes rows as:
//
//	"MCBR" | version | uvarint rows | { uvarint fields | { uvarint len | bytes } } | crc32 (big endian)
//
// The checksum covers everything before it.
func Encode(rows models.RowSet) []byte {
	var buf bytes.Buffer
	buf.Write(magic)
	buf.WriteByte(Version)

	writeUvarint(&buf, uint64(len(rows)))
	for _, row := range rows {
		writeUvarint(&buf, uint64(len(row)))
		for _, field := range row {
			writeUvarint(&buf, uint64(len(field)))
			buf.WriteString(field)
		}
	}

	return binary.BigEndian.AppendUint32(buf.Bytes(), crc32.ChecksumIEEE(buf.Bytes()))
}

// Decode parses data written by [Encode]. Every failure wraps [shared.ErrCacheCorrupt].
func Decode(data []byte) (models.RowSet, error) {
	if len(data) < headerLen+trailerLen {
		return nil, corrupt("truncated: %d bytes", len(data))
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return nil, corrupt("bad magic %q", data[:len(magic)])
	}
	if v := data[len(magic)]; v != Version {
		return nil, corrupt("unsupported version %d", v)
	}

	payload, sum := data[:len(data)-trailerLen], data[len(data)-trailerLen:]
	if want, got := binary.BigEndian.Uint32(sum), crc32.ChecksumIEEE(payload); want != got {
		return nil, corrupt("checksum mismatch: stored %08x, computed %08x", want, got)
	}

	r := &reader{buf: payload[headerLen:]}
	n, err := r.count()
	if err != nil {
		return nil, err
	}

	rows := make(models.RowSet, 0, n)
	for i := range n {
		fields, err := r.count()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		row := make([]string, 0, fields)
		for range fields {
			field, err := r.field()
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			row = append(row, field)
		}
		rows = append(rows, row)
	}

	if len(r.buf) != 0 {
		return nil, corrupt("%d trailing bytes", len(r.buf))
	}
	return rows, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrCacheCorrupt, fmt.Sprintf(format, args...))
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	buf.Write(binary.AppendUvarint(nil, v))
}

type reader struct {
	buf []byte
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf)
	if n <= 0 {
		return 0, corrupt("malformed length")
	}
	r.buf = r.buf[n:]
	return v, nil
}

// count reads an element count. Every element takes at least one byte, so a count larger than the remaining input
// is corrupt; this also bounds allocations.
func (r *reader) count() (int, error) {
	v, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if v > uint64(len(r.buf)) {
		return 0, corrupt("count %d exceeds remaining %d bytes", v, len(r.buf))
	}
	return int(v), nil
}

func (r *reader) field() (string, error) {
	v, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if v > uint64(len(r.buf)) {
		return "", corrupt("field length %d exceeds remaining %d bytes", v, len(r.buf))
	}
	s := r.buf[:v]
	r.buf = r.buf[v:]
	return string(s), nil
}
