package ingest

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestIsSupported(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"report.pdf", true},
		{"notes.docx", true},
		{"legacy.doc", true},
		{"readme.txt", true},
		{"guide.md", true},
		{"REPORT.PDF", true},
		{"archive.zip", false},
		{"image.png", false},
		{"noextension", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsSupported(tt.filename); got != tt.want {
				t.Errorf("IsSupported(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestExtractTextPlain(t *testing.T) {
	content := "Hello, world.\nSecond line."

	for _, name := range []string{"file.txt", "file.md"} {
		got, err := ExtractText([]byte(content), name)
		if err != nil {
			t.Fatalf("ExtractText(%s) error: %v", name, err)
		}
		if got != content {
			t.Errorf("ExtractText(%s) = %q, want %q", name, got, content)
		}
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := ExtractText([]byte("data"), "file.xlsx")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestExtractTextDocx(t *testing.T) {
	documentXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	data := buildDocx(t, documentXML)

	got, err := ExtractText(data, "sample.docx")
	if err != nil {
		t.Fatalf("ExtractText error: %v", err)
	}

	if !strings.Contains(got, "First paragraph.") {
		t.Errorf("missing first paragraph in %q", got)
	}
	if !strings.Contains(got, "Second paragraph.") {
		t.Errorf("split text runs not joined in %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Errorf("expected newline between paragraphs in %q", got)
	}
}

func TestExtractTextDocxCorrupt(t *testing.T) {
	_, err := ExtractText([]byte("this is not a zip archive"), "broken.docx")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("<styles/>"))
	zw.Close()

	_, err = ExtractText(buf.Bytes(), "empty.docx")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextPDFCorrupt(t *testing.T) {
	_, err := ExtractText([]byte("not a pdf"), "broken.pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
