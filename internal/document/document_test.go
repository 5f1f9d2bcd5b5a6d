package document

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/capibara/internal/model"
)

var fixedTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

func sample() Collections {
	point := model.Structure{
		Name:       "Point",
		Header:     model.NewHeaderSummary("geometry"),
		Fields:     []model.Field{{Name: "x", Type: "int"}},
		OSAffinity: []string{"linux"},
	}
	return Collections{
		Headers: []model.Header{{Ref: "geometry", Name: "geometry.h", Summary: "Geometry", OSAffinity: []string{"linux"}}},
		Structs: []model.Structure{point},
		Typedefs: []model.TypeAlias{{
			Name:          "PointAlias",
			Header:        model.NewHeaderSummary("geometry"),
			Type:          "struct Point",
			AssociatedRef: model.StructRef{Structure: point},
			OSAffinity:    []string{},
		}},
	}
}

func TestAssembleKeepsOrderAndFillsEmptyCollections(t *testing.T) {
	doc := Assemble(sample(), "https://example.org/ref", fixedTime)

	assert.Equal(t, "2024-03-01T11:30:00Z", doc.BuildDate)
	assert.Equal(t, "https://example.org/ref", doc.ReferenceURL)
	assert.Len(t, doc.Headers, 1)
	assert.NotNil(t, doc.Macros)
	assert.NotNil(t, doc.Enums)
	assert.NotNil(t, doc.Functions)
}

func TestEncodeWireShape(t *testing.T) {
	doc := Assemble(sample(), "https://example.org/ref?a=1&b=2", fixedTime)
	data, err := Encode(doc, 0)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"reference_url":"https://example.org/ref?a=1&b=2"`)
	assert.Contains(t, string(data), `"macros":[]`)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"build_date", "reference_url", "headers", "macros", "enums", "structs", "typedefs", "functions"} {
		assert.Contains(t, decoded, key)
	}

	var typedefs []struct {
		Name          string                     `json:"name"`
		AssociatedRef map[string]json.RawMessage `json:"associated_ref"`
	}
	require.NoError(t, json.Unmarshal(decoded["typedefs"], &typedefs))
	require.Len(t, typedefs, 1)
	require.Contains(t, typedefs[0].AssociatedRef, "struct")

	var embedded model.Structure
	require.NoError(t, json.Unmarshal(typedefs[0].AssociatedRef["struct"], &embedded))
	assert.Equal(t, sample().Structs[0], embedded)
}

func TestEncodeIndent(t *testing.T) {
	data, err := Encode(Assemble(Collections{}, "u", fixedTime), 2)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"reference_url\": \"u\"")
}

func TestSameContentIgnoresBuildDate(t *testing.T) {
	first, err := Encode(Assemble(sample(), "u", fixedTime), 0)
	require.NoError(t, err)

	later := Assemble(sample(), "u", fixedTime.Add(48*time.Hour))
	same, err := SameContent(first, later, 0)
	require.NoError(t, err)
	assert.True(t, same)

	changed := sample()
	changed.Headers[0].Summary = "Changed"
	same, err = SameContent(first, Assemble(changed, "u", fixedTime), 0)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestSameContentRejectsForeignFile(t *testing.T) {
	_, err := SameContent([]byte(`{"hello":"world"}`), Assemble(Collections{}, "u", fixedTime), 0)
	require.Error(t, err)

	_, err = SameContent([]byte(`not json`), Assemble(Collections{}, "u", fixedTime), 0)
	require.Error(t, err)
}
