package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

const sampleCSS = ".a {\n  width: 10px; /* ширина */\n  content: \"→\";\n}\n"

func encodeWithTransformer(t *testing.T, data []byte, encoder transform.Transformer) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, encoder)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("finalize encoded sample: %v", err)
	}
	return buf.Bytes()
}

func encodeSample(t *testing.T, data []byte, enc srcEncoding) []byte {
	t.Helper()
	switch enc {
	case encUnknown:
		return data
	case encUTF8:
		return append([]byte{0xEF, 0xBB, 0xBF}, data...)
	case encUTF16BigEndian:
		return encodeWithTransformer(t, data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder())
	case encUTF16LittleEndian:
		return encodeWithTransformer(t, data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())
	case encUTF32BigEndian:
		return encodeWithTransformer(t, data, utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewEncoder())
	case encUTF32LittleEndian:
		return encodeWithTransformer(t, data, utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewEncoder())
	}
	t.Fatalf("unsupported encoding: %v", enc)
	return nil
}

// TestIsArchiveFile tests archive file detection
func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("stylesheet", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.css")
		if err := os.WriteFile(filePath, []byte(sampleCSS), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "empty.css")
		if err := os.WriteFile(filePath, nil, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got {
			t.Error("isArchiveFile() = true, want false")
		}
	})

	t.Run("real zip with any extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "theme.jar")
		zipFile, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}
		w := zip.NewWriter(zipFile)
		f, err := w.Create("main.css")
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := f.Write([]byte(sampleCSS)); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
		w.Close()
		zipFile.Close()

		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if !got {
			t.Error("isArchiveFile() = false, want true")
		}
	})
}

func TestIsArchiveFile_NonExistent(t *testing.T) {
	_, err := isArchiveFile("/nonexistent/file.zip")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestDetectUTF tests UTF encoding detection
func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{"UTF-8 BOM", []byte{0xEF, 0xBB, 0xBF, 0x00}, encUTF8},
		{"UTF-16 Big Endian BOM", []byte{0xFE, 0xFF, 0x00, 0x00}, encUTF16BigEndian},
		{"UTF-16 Little Endian BOM", []byte{0xFF, 0xFE, 0x01, 0x00}, encUTF16LittleEndian},
		{"UTF-32 Big Endian BOM", []byte{0x00, 0x00, 0xFE, 0xFF}, encUTF32BigEndian},
		{"UTF-32 Little Endian BOM", []byte{0xFF, 0xFE, 0x00, 0x00}, encUTF32LittleEndian},
		{"No BOM", []byte(".a{}"), encUnknown},
		{"short", []byte{0xFF}, encUnknown},
		{"empty", nil, encUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectUTF(tt.buf); got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBOMDetectionFunctions tests individual BOM detection functions
func TestBOMDetectionFunctions(t *testing.T) {
	t.Run("isUTF8BOM3", func(t *testing.T) {
		if !isUTF8BOM3([]byte{0xEF, 0xBB, 0xBF}) {
			t.Error("Expected true for UTF-8 BOM")
		}
		if isUTF8BOM3([]byte{0x00, 0x00, 0x00}) {
			t.Error("Expected false for non-BOM")
		}
	})

	t.Run("isUTF16BigEndianBOM2", func(t *testing.T) {
		if !isUTF16BigEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected true for UTF-16 BE BOM")
		}
		if isUTF16BigEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected false for UTF-16 LE BOM")
		}
	})

	t.Run("isUTF16LittleEndianBOM2", func(t *testing.T) {
		if !isUTF16LittleEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected true for UTF-16 LE BOM")
		}
		if isUTF16LittleEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected false for UTF-16 BE BOM")
		}
	})

	t.Run("isUTF32BigEndianBOM4", func(t *testing.T) {
		if !isUTF32BigEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected true for UTF-32 BE BOM")
		}
		if isUTF32BigEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected false for UTF-32 LE BOM")
		}
	})

	t.Run("isUTF32LittleEndianBOM4", func(t *testing.T) {
		if !isUTF32LittleEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected true for UTF-32 LE BOM")
		}
		if isUTF32LittleEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected false for UTF-32 BE BOM")
		}
	})
}

func TestSelectReader(t *testing.T) {
	encodings := []srcEncoding{
		encUnknown,
		encUTF8,
		encUTF16BigEndian,
		encUTF16LittleEndian,
		encUTF32BigEndian,
		encUTF32LittleEndian,
	}

	for _, enc := range encodings {
		t.Run(enc.String(), func(t *testing.T) {
			r := selectReader(bytes.NewReader(encodeSample(t, []byte(sampleCSS), enc)), enc)
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != sampleCSS {
				t.Errorf("decoded %q, want %q", got, sampleCSS)
			}
		})
	}
}

func TestSelectReader_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid encoding, but didn't panic")
		}
	}()

	selectReader(bytes.NewReader([]byte("test")), srcEncoding(999))
}

func TestReadStylesheet(t *testing.T) {
	encodings := []srcEncoding{
		encUnknown,
		encUTF8,
		encUTF16BigEndian,
		encUTF16LittleEndian,
		encUTF32BigEndian,
		encUTF32LittleEndian,
	}

	for _, enc := range encodings {
		t.Run(enc.String(), func(t *testing.T) {
			data, got, err := readStylesheet(bytes.NewReader(encodeSample(t, []byte(sampleCSS), enc)))
			if err != nil {
				t.Fatalf("readStylesheet() error = %v", err)
			}
			if got != enc {
				t.Errorf("encoding = %v, want %v", got, enc)
			}
			if string(data) != sampleCSS {
				t.Errorf("data = %q, want %q", data, sampleCSS)
			}
		})
	}
}

func TestReadStylesheet_Short(t *testing.T) {
	for _, src := range []string{"", "a", "a{}"} {
		data, enc, err := readStylesheet(bytes.NewReader([]byte(src)))
		if err != nil {
			t.Errorf("readStylesheet(%q) error = %v", src, err)
		}
		if enc != encUnknown {
			t.Errorf("readStylesheet(%q) encoding = %v, want unknown", src, enc)
		}
		if string(data) != src {
			t.Errorf("readStylesheet(%q) = %q", src, data)
		}
	}
}

func TestSrcEncoding_String(t *testing.T) {
	tests := []struct {
		enc  srcEncoding
		want string
	}{
		{encUnknown, "unknown"},
		{encUTF8, "UTF-8"},
		{encUTF16BigEndian, "UTF-16BE"},
		{encUTF16LittleEndian, "UTF-16LE"},
		{encUTF32BigEndian, "UTF-32BE"},
		{encUTF32LittleEndian, "UTF-32LE"},
		{srcEncoding(42), "srcEncoding(42)"},
	}
	for _, tt := range tests {
		if got := tt.enc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
