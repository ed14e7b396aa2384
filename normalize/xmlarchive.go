package normalize

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"io"
	"os"
	"strings"
)

// Known metadata tags for structured legal XML, compared case-insensitively
// with namespaces stripped.
var (
	xmlIDTags    = tagSet("ID", "CID", "NOR", "IDELI", "ID_ELI", "IDTEXTE", "ID_ARTICLE")
	xmlTitleTags = tagSet("TITRE", "TITREFULL", "TITRE_TA", "TITRE_TXT", "TITLE")
	xmlDateTags  = tagSet("DATE", "DATE_TEXTE", "DATE_PUBLICATION", "DATE_SIGNATURE", "DATE_DEBUT", "DATE_FIN")
)

func tagSet(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

// xmlArchiveExtractor handles sources that ship one XML document per
// archive member (tar, tar.gz, zip) or as bare .xml files.
func xmlArchiveExtractor() Extractor {
	return Extractor{
		Accept: func(path string) bool {
			return isTarPath(path) || hasSuffixFold(path, ".zip") || hasSuffixFold(path, ".xml")
		},
		Extract: extractXMLArchive,
	}
}

func extractXMLArchive(path string, emit EmitFunc) error {
	switch {
	case isTarPath(path):
		return eachTarMember(path, func(name string, payload []byte) {
			if !hasSuffixFold(name, ".xml") {
				return
			}
			emitStructuredXML(path+"::"+name, payload, emit)
		})
	case hasSuffixFold(path, ".zip"):
		return eachZipMember(path, func(name string, payload []byte) {
			if !hasSuffixFold(name, ".xml") {
				return
			}
			emitStructuredXML(path+"::"+name, payload, emit)
		})
	default:
		payload, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		emitStructuredXML(path, payload, emit)
		return nil
	}
}

// emitStructuredXML parses one XML document and emits it unless it has no
// text content. Unparseable payloads are skipped silently.
func emitStructuredXML(sourceFile string, payload []byte, emit EmitFunc) {
	fields, ok := parseStructuredXML(payload)
	if !ok {
		return
	}
	emit(sourceFile, fields)
}

// parseStructuredXML concatenates all text nodes of the document and scans
// the known metadata tag sets. Returns ok=false for unparseable documents
// or documents without text content.
func parseStructuredXML(payload []byte) (DocFields, bool) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	dec.Strict = false

	var fields DocFields
	var text strings.Builder
	var stack []string
	parsedAny := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return DocFields{}, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			parsedAny = true
			stack = append(stack, strings.ToUpper(t.Name.Local))
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			chunk := string(t)
			if strings.TrimSpace(chunk) == "" {
				break
			}
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(chunk)

			if len(stack) == 0 {
				break
			}
			tag := stack[len(stack)-1]
			value := cleanText(chunk)
			switch {
			case fields.ID == "" && xmlIDTags[tag]:
				fields.ID = value
			case fields.Title == "" && xmlTitleTags[tag]:
				fields.Title = value
			case fields.Date == "" && xmlDateTags[tag]:
				fields.Date = value
			}
		}
	}

	fields.Text = cleanText(text.String())
	if !parsedAny || fields.Text == "" {
		return DocFields{}, false
	}
	return fields, true
}

// eachTarMember streams regular members of a tar or tar.gz archive.
// Member read errors skip the member; open errors fail the file.
func eachTarMember(path string, fn func(name string, payload []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if hasSuffixFold(path, ".tgz") || hasSuffixFold(path, ".tar.gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			continue
		}
		fn(hdr.Name, payload)
	}
}

// eachZipMember streams regular members of a zip archive.
func eachZipMember(path string, fn func(name string, payload []byte)) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			continue
		}
		payload, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		fn(member.Name, payload)
	}
	return nil
}
