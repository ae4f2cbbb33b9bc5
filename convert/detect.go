package convert

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUnknown:
		return "unknown"
	case encUTF8:
		return "UTF-8"
	case encUTF16BigEndian:
		return "UTF-16BE"
	case encUTF16LittleEndian:
		return "UTF-16LE"
	case encUTF32BigEndian:
		return "UTF-32BE"
	case encUTF32LittleEndian:
		return "UTF-32LE"
	default:
		return fmt.Sprintf("srcEncoding(%d)", int(e))
	}
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

// detectUTF looks at the BOM. UTF-32LE must be checked before UTF-16LE, they
// share first two bytes.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader returns reader producing UTF-8 without BOM.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return unicode.UTF8BOM.NewDecoder().Reader(r)
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	}
	panic(fmt.Sprintf("unexpected source encoding %d", enc))
}

// readStylesheet reads complete stylesheet converting it to UTF-8 when it
// starts with UTF-16 or UTF-32 BOM.
func readStylesheet(r io.Reader) ([]byte, srcEncoding, error) {
	br := bufio.NewReader(r)
	// short streams are fine here, Peek returns what is available
	head, _ := br.Peek(4)
	enc := detectUTF(head)
	data, err := io.ReadAll(selectReader(br, enc))
	if err != nil {
		return nil, enc, fmt.Errorf("unable to read stylesheet (%s): %w", enc, err)
	}
	return data, enc, nil
}

// isArchiveFile checks file signature, extension does not matter.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// this is what filetype needs to recognize any of supported types
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}
