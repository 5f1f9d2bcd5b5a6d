// Package document assembles the loaded collections into the output
// document and encodes it.
package document

import (
	"bytes"
	"encoding/json"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/model"
)

// DefaultOutput is where the document is written unless configured otherwise.
const DefaultOutput = "capibara.json"

// Collections are the sorted pass results handed to Assemble.
type Collections struct {
	Headers   []model.Header
	Macros    []model.Macro
	Enums     []model.Enumeration
	Structs   []model.Structure
	Typedefs  []model.TypeAlias
	Functions []model.Function
}

// Assemble wraps the collections with a build timestamp and the reference
// URL. It does not reorder anything.
func Assemble(c Collections, referenceURL string, now time.Time) model.Document {
	return model.Document{
		BuildDate:    FormatBuildDate(now),
		ReferenceURL: referenceURL,
		Headers:      model.NonNil(c.Headers),
		Macros:       model.NonNil(c.Macros),
		Enums:        model.NonNil(c.Enums),
		Structs:      model.NonNil(c.Structs),
		Typedefs:     model.NonNil(c.Typedefs),
		Functions:    model.NonNil(c.Functions),
	}
}

// FormatBuildDate renders t as an RFC 3339 UTC timestamp.
func FormatBuildDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Encode renders doc as JSON without HTML escaping. indent > 0 pretty-prints
// with that many spaces. The result ends with a newline.
func Encode(doc model.Document, indent int) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if indent > 0 {
		encoder.SetIndent("", string(bytes.Repeat([]byte(" "), indent)))
	}
	if err := encoder.Encode(doc); err != nil {
		return nil, errors.Errorf("encoding document: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildDateOf extracts build_date from an encoded document.
func BuildDateOf(data []byte) (string, error) {
	var head struct {
		BuildDate *string `json:"build_date"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", errors.Errorf("decoding document: %w", err)
	}
	if head.BuildDate == nil {
		return "", errors.New("document has no build_date")
	}
	return *head.BuildDate, nil
}

// SameContent reports whether existing encodes doc, ignoring build_date.
func SameContent(existing []byte, doc model.Document, indent int) (bool, error) {
	date, err := BuildDateOf(existing)
	if err != nil {
		return false, err
	}
	doc.BuildDate = date
	fresh, err := Encode(doc, indent)
	if err != nil {
		return false, err
	}
	return bytes.Equal(bytes.TrimSpace(existing), bytes.TrimSpace(fresh)), nil
}
