package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plainCollapsesWhitespace(t *testing.T) {
	e := NewExtractor(0)
	got, err := e.ExtractBytes([]byte("Hello   world\n\tLine 2\n"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world Line 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor(0)
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_xlsx(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Title")
	_ = f.SetCellValue("Sheet1", "A2", "Value 1")
	_ = f.SetCellValue("Sheet1", "C2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor(0).ExtractBytes(buf.Bytes(), ".XLSX")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title Value 1 Value 2" {
		t.Errorf("got %q", got)
	}
}

// docxWith returns a minimal .docx whose body holds one paragraph per entry.
func docxWith(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p w:rsidR="00AB"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docx(t *testing.T) {
	got, err := NewExtractor(0).ExtractBytes(docxWith("First paragraph.", "Second &amp; last."), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "First paragraph. Second & last." {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxMissingBody(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	if _, err := NewExtractor(0).ExtractBytes(buf.Bytes(), ".docx"); err == nil {
		t.Error("expected error for a docx without word/document.xml")
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	if _, err := NewExtractor(0).ExtractBytes([]byte("plain"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	if _, err := NewExtractor(0).ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	_, err := NewExtractor(0).ExtractBytes([]byte("x"), ".pptx")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestSupported(t *testing.T) {
	e := NewExtractor(0)
	cases := map[string]bool{
		"a.txt": true, "b.MD": true, "c.pdf": true, "d.docx": true, "e.xlsx": true,
		"f.pptx": false, "g": false, "h.jsonl": false,
	}
	for path, want := range cases {
		if got := e.Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestExtract_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passage.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor(0).Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_sizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, bytes.Repeat([]byte("a"), 64), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewExtractor(16).Extract(path); err == nil {
		t.Error("expected error for file over the size limit")
	}
	if _, err := NewExtractor(64).Extract(path); err != nil {
		t.Errorf("file at the limit should be read: %v", err)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor(0).Extract(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
