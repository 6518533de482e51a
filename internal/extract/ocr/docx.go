package ocr

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX pulls the text runs out of word/document.xml. DOCX needs no
// external tool: the payload is a zip of WordprocessingML.
func extractDOCX(path string) (Result, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Result{Method: "docx-text"}, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	var doc io.ReadCloser
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return Result{Method: "docx-text"}, fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if doc == nil {
		return Result{Method: "docx-text"}, fmt.Errorf("docx has no word/document.xml")
	}
	defer doc.Close()

	text, err := wordXMLText(doc)
	if err != nil {
		return Result{Method: "docx-text"}, err
	}
	return Result{Text: text, Method: "docx-text"}, nil
}

func wordXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			// paragraph boundaries become newlines
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
