package textconv

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docxText extracts text from the OOXML word/document.xml part. Legacy .doc
// uploads that are really zip containers go through the same path; anything
// else fails with a conversion error.
func docxText(raw []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open word archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range reader.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("word archive has no document part")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	return wordXMLText(rc), nil
}

func wordXMLText(r io.Reader) string {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	lastWasNewline := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf.WriteString(text)
					lastWasNewline = false
				}
			case "tab":
				buf.WriteByte('\t')
				lastWasNewline = false
			case "br", "cr":
				buf.WriteByte('\n')
				lastWasNewline = true
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "tr" {
				if !lastWasNewline {
					buf.WriteByte('\n')
					lastWasNewline = true
				}
			}
		}
	}
	return buf.String()
}
