package filestore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// textFieldSize is MaxTextBytes plus one terminating NUL byte.
const textFieldSize = recordstore.MaxTextBytes + 1

const (
	bookRecordSize    = 8 + textFieldSize + textFieldSize + 1
	studentRecordSize = 8 + textFieldSize
	issueRecordSize   = 8 + 8 + 8 + 4 + 1 + 8
)

type codec[R any] struct {
	size   int
	encode func(r R, buf []byte) error
	decode func(buf []byte) R
}

func (c codec[R]) encodeAll(records []R) ([]byte, error) {
	out := make([]byte, len(records)*c.size)
	for i, r := range records {
		if err := c.encode(r, out[i*c.size:(i+1)*c.size]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (c codec[R]) decodeAll(data []byte) ([]R, error) {
	if len(data)%c.size != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of record size %d",
			recordstore.ErrCorruptCollection, len(data), c.size)
	}

	records := make([]R, 0, len(data)/c.size)
	for off := 0; off < len(data); off += c.size {
		records = append(records, c.decode(data[off:off+c.size]))
	}

	return records, nil
}

var bookCodec = codec[recordstore.Book]{
	size: bookRecordSize,
	encode: func(b recordstore.Book, buf []byte) error {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(b.ID))
		putText(buf[8:8+textFieldSize], b.Title)
		putText(buf[8+textFieldSize:8+2*textFieldSize], b.Author)
		buf[8+2*textFieldSize] = boolByte(b.Available)
		return nil
	},
	decode: func(buf []byte) recordstore.Book {
		return recordstore.Book{
			ID:        recordstore.ID(binary.LittleEndian.Uint64(buf[0:8])),
			Title:     getText(buf[8 : 8+textFieldSize]),
			Author:    getText(buf[8+textFieldSize : 8+2*textFieldSize]),
			Available: buf[8+2*textFieldSize] != 0,
		}
	},
}

var studentCodec = codec[recordstore.Student]{
	size: studentRecordSize,
	encode: func(s recordstore.Student, buf []byte) error {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(s.ID))
		putText(buf[8:8+textFieldSize], s.Name)
		return nil
	},
	decode: func(buf []byte) recordstore.Student {
		return recordstore.Student{
			ID:   recordstore.ID(binary.LittleEndian.Uint64(buf[0:8])),
			Name: getText(buf[8 : 8+textFieldSize]),
		}
	},
}

var issueCodec = codec[recordstore.Issue]{
	size: issueRecordSize,
	encode: func(i recordstore.Issue, buf []byte) error {
		// the field is a 32-bit int on disk
		if i.DueDays < 0 || i.DueDays > math.MaxInt32 {
			return fmt.Errorf("%w: book %d has %d days", recordstore.ErrDueDaysOutOfRange, i.BookID, i.DueDays)
		}

		binary.LittleEndian.PutUint64(buf[0:8], uint64(i.BookID))
		binary.LittleEndian.PutUint64(buf[8:16], uint64(i.StudentID))
		binary.LittleEndian.PutUint64(buf[16:24], uint64(recordstore.ToUnix(i.IssueTime)))
		binary.LittleEndian.PutUint32(buf[24:28], uint32(i.DueDays))
		buf[28] = boolByte(i.Returned)
		binary.LittleEndian.PutUint64(buf[29:37], uint64(recordstore.ToUnix(i.ReturnTime)))
		return nil
	},
	decode: func(buf []byte) recordstore.Issue {
		return recordstore.Issue{
			BookID:     recordstore.ID(binary.LittleEndian.Uint64(buf[0:8])),
			StudentID:  recordstore.ID(binary.LittleEndian.Uint64(buf[8:16])),
			IssueTime:  recordstore.FromUnix(int64(binary.LittleEndian.Uint64(buf[16:24]))),
			DueDays:    int(int32(binary.LittleEndian.Uint32(buf[24:28]))),
			Returned:   buf[28] != 0,
			ReturnTime: recordstore.FromUnix(int64(binary.LittleEndian.Uint64(buf[29:37]))),
		}
	},
}

// putText writes s NUL-padded into field; text is bounded first so the last byte always stays NUL.
func putText(field []byte, s string) {
	clear(field)
	copy(field, recordstore.BoundText(s))
}

func getText(field []byte) string {
	if n := bytes.IndexByte(field, 0); n >= 0 {
		return string(field[:n])
	}

	return string(field)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
