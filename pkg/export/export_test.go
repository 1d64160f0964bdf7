package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"code", "name"},
		Rows:    [][]string{{"CS101", "Intro, Programming"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "code,name\nCS101,\"Intro, Programming\"\n", string(out))
}

func TestCSVExporterPadsFooterAndNeutralisesFormulas(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVExporter().Write(&buf, Dataset{
		Headers: []string{"code", "name", "credits"},
		Rows:    [][]string{{"XX1", "=HYPERLINK(\"x\")", "3"}, {"XX2", "@cmd", "2"}},
		Footer:  [][]string{{"total", "", "5"}, {"note"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "code,name,credits\nXX1,\"'=HYPERLINK(\"\"x\"\")\",3\nXX2,'@cmd,2\ntotal,,5\nnote,,\n", buf.String())
}

func TestCSVExporterRejectsMalformedDatasets(t *testing.T) {
	cases := map[string]Dataset{
		"no headers":   {},
		"blank header": {Headers: []string{"a", " "}},
		"ragged row":   {Headers: []string{"a", "b"}, Rows: [][]string{{"1"}}},
		"wide footer":  {Headers: []string{"a"}, Footer: [][]string{{"1", "2"}}},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, NewCSVExporter().Write(&buf, data))
			assert.Zero(t, buf.Len())
		})
	}
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Document{
		Title: "Transcript",
		Lines: []string{"Student: u1"},
		Sections: []Section{{
			Title:   "Semester 1",
			Headers: []string{"Code", "Grade"},
			Rows:    [][]string{{"CS101", "A+"}},
			Footer:  "SGPA 9.00",
		}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRejectsHeaderlessSection(t *testing.T) {
	_, err := NewPDFExporter().Render(Document{Sections: []Section{{Title: "empty"}}})
	assert.Error(t, err)
}
