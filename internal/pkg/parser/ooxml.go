package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// OOXML documents (docx, pptx) are zip containers of XML parts. Both
// parsers below unmarshal only the text-bearing parts and ignore
// styling, media and relationships.

type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []string `xml:"t"`
}

// parseDOCX reads word/document.xml and joins paragraph text with
// newlines.
func parseDOCX(data []byte) (string, error) {
	part, err := readZipPart(data, "word/document.xml")
	if err != nil {
		return "", &ParseError{Format: "docx", Err: err}
	}

	var doc docxDocument
	if err := xml.Unmarshal(part, &doc); err != nil {
		return "", &ParseError{Format: "docx", Err: err}
	}

	var paragraphs []string
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				sb.WriteString(t)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// parsePPTX walks ppt/slides/slide*.xml in slide order and collects
// the drawing-ml text nodes of each slide.
func parsePPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ParseError{Format: "pptx", Err: err}
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, slideFile{num: slideNumber(f.Name), file: f})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var out []string
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		if text := slideText(content); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n"), nil
}

// slideText scans a slide part for <a:t> character data. Token scanning
// copes with the arbitrary shape-tree nesting of slide XML.
func slideText(part []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(part))
	var texts []string
	var inText bool
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			inText = el.Name.Local == "t"
		case xml.EndElement:
			inText = false
		case xml.CharData:
			if inText {
				if t := strings.TrimSpace(string(el)); t != "" {
					texts = append(texts, t)
				}
			}
		}
	}
	return strings.Join(texts, " ")
}

func slideNumber(name string) int {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return n
}

func readZipPart(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("archive part %q not found", name)
}
