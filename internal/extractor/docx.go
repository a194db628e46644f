package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*DOCX)(nil)

const docxBodyPart = "word/document.xml"

// maxDocumentXML bounds the decompressed main document part.
const maxDocumentXML = 64 << 20

// DOCX extracts the body paragraphs of a WordprocessingML document.
// Only top-level paragraphs are read, so table cell text is skipped.
type DOCX struct{}

// NewDOCX creates a DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

func (d *DOCX) Extensions() []string {
	return []string{".docx"}
}

// Extract joins the non-blank paragraphs with a space, in document order.
func (d *DOCX) Extract(content []byte) (*domain.ExtractedText, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	body, err := readZipEntry(reader, docxBodyPart)
	if err != nil {
		return nil, err
	}

	paragraphs, err := parseParagraphs(body)
	if err != nil {
		return nil, err
	}

	var nonBlank []string
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			nonBlank = append(nonBlank, p)
		}
	}

	return &domain.ExtractedText{Text: CleanText(strings.Join(nonBlank, " "))}, nil
}

func readZipEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxDocumentXML+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if len(data) > maxDocumentXML {
			return nil, fmt.Errorf("%s exceeds %d bytes", name, maxDocumentXML)
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing %s", name)
}

// embeddedContent names elements whose subtrees hold drawings or text boxes
// rather than paragraph runs. mc:AlternateContent repeats the same text box
// in its Choice and Fallback branches.
var embeddedContent = map[string]bool{
	"AlternateContent": true,
	"drawing":          true,
	"pict":             true,
	"txbxContent":      true,
	"object":           true,
}

// parseParagraphs walks the XML token stream and returns the text of each
// w:p that is a direct child of w:body. Only run-level w:t, w:tab, w:br and
// w:cr contribute, so runs nested in hyperlinks or smart tags are included
// while text boxes and drawings are skipped.
func parseParagraphs(data []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
		skipDepth  int // stack depth of the embedded element being skipped, 0 when none
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			inRun := parentIs(stack, "r")
			switch {
			case skipDepth > 0:
			case name == "p" && parentIs(stack, "body"):
				inPara = true
				current.Reset()
			case inPara && embeddedContent[name]:
				skipDepth = len(stack) + 1
			case inPara && inRun && name == "t":
				inText = true
			case inPara && inRun && name == "tab":
				current.WriteByte('\t')
			case inPara && inRun && (name == "br" || name == "cr"):
				current.WriteByte('\n')
			}
			stack = append(stack, name)

		case xml.EndElement:
			if skipDepth > 0 && len(stack) == skipDepth {
				skipDepth = 0
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch {
			case t.Name.Local == "t":
				inText = false
			case t.Name.Local == "p" && inPara && parentIs(stack, "body"):
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}

		case xml.CharData:
			if inPara && inText {
				current.Write(t)
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("parse %s: unexpected end of document", docxBodyPart)
	}
	return paragraphs, nil
}

func parentIs(stack []string, name string) bool {
	return len(stack) > 0 && stack[len(stack)-1] == name
}
