package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slideOneXML = `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:txBody>
        <a:p><a:r><a:t>Title text</a:t></a:r></a:p>
        <a:p><a:r><a:t>Bullet one</a:t></a:r></a:p>
      </p:txBody>
    </p:sp>
    <p:graphicFrame>
      <a:tbl>
        <a:tr>
          <a:tc><a:txBody><a:p><a:r><a:t>H1</a:t></a:r></a:p></a:txBody></a:tc>
          <a:tc><a:txBody><a:p><a:r><a:t>H2</a:t></a:r></a:p></a:txBody></a:tc>
        </a:tr>
      </a:tbl>
    </p:graphicFrame>
  </p:spTree></p:cSld>
</p:sld>`

const slideTwoXML = `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody><a:p><a:r><a:t></a:t></a:r></a:p></p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`

const slideOneRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId2"
    Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
    Target="../notesSlides/notesSlide1.xml"/>
</Relationships>`

const notesOneXML = `<?xml version="1.0" encoding="UTF-8"?>
<p:notes xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
         xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp>
      <p:nvSpPr><p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr>
      <p:txBody><a:p><a:r><a:t>ignored</a:t></a:r></a:p></p:txBody>
    </p:sp>
    <p:sp>
      <p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>
      <p:txBody><a:p><a:r><a:t>Remember the Q3 numbers</a:t></a:r></a:p></p:txBody>
    </p:sp>
  </p:spTree></p:cSld>
</p:notes>`

func TestExtractPPTX(t *testing.T) {
	content := buildArchive(t, map[string]string{
		"ppt/slides/slide1.xml":            slideOneXML,
		"ppt/slides/slide2.xml":            slideTwoXML,
		"ppt/slides/_rels/slide1.xml.rels": slideOneRels,
		"ppt/notesSlides/notesSlide1.xml":  notesOneXML,
	})

	text, err := extractPPTX(content)
	require.NoError(t, err)

	assert.Equal(t,
		"--- Slide 1 ---\n"+
			"Title text\nBullet one\n"+
			"H1\tH2\n"+
			"[Notes]\nRemember the Q3 numbers",
		text,
	)
}

func TestExtractPPTXOmitsTextlessSlides(t *testing.T) {
	content := buildArchive(t, map[string]string{
		"ppt/slides/slide1.xml": slideTwoXML,
	})

	text, err := extractPPTX(content)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestParseNotesXMLSkipsNonBodyPlaceholders(t *testing.T) {
	notes := parseNotesXML([]byte(notesOneXML))
	assert.Equal(t, "Remember the Q3 numbers", notes)
}
