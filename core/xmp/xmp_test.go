package xmp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFreshContainsFields(t *testing.T) {
	out := BuildFresh(Fields{Title: "Sunset", Description: "A nice sunset", Keywords: []string{"sun", "sky"}})
	s := string(out)

	assert.True(t, strings.HasPrefix(s, "<?xpacket begin="))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(s), `<?xpacket end="w"?>`))
	assert.Contains(t, s, "<dc:title>")
	assert.Contains(t, s, "Sunset")
	assert.Contains(t, s, "<dc:description>")
	assert.Contains(t, s, "A nice sunset")
	assert.Contains(t, s, "<dc:subject>")
	assert.Contains(t, s, "sun</rdf:li>")
	assert.Contains(t, s, "sky</rdf:li>")
	assert.Contains(t, s, "photoshop:CaptionWriter")
}

func TestBuildFreshOmitsEmptyFields(t *testing.T) {
	out := BuildFresh(Fields{Title: "Only Title"})
	s := string(out)
	assert.Contains(t, s, "dc:title")
	assert.NotContains(t, s, "dc:description")
	assert.NotContains(t, s, "dc:subject")
}

func TestMergeIntoPreservesUnrelatedContent(t *testing.T) {
	existing := []byte(`<?xpacket begin=" " id="w"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about="" xmlns:exif="http://ns.adobe.com/exif/1.0/" exif:GPSLatitude="10,30.0N">
      <exif:ISOSpeedRatings>200</exif:ISOSpeedRatings>
    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`)

	merged, err := MergeInto(existing, Fields{Title: "New Title"})
	require.NoError(t, err)
	s := string(merged)

	assert.Contains(t, s, "exif:GPSLatitude")
	assert.Contains(t, s, "exif:ISOSpeedRatings")
	assert.Contains(t, s, "New Title")
	assert.Contains(t, s, "xmlns:dc=")
}

func TestMergeIntoReplacesPriorTitle(t *testing.T) {
	existing := []byte(BuildFresh(Fields{Title: "Old Title", Description: "Old desc"}))

	merged, err := MergeInto(existing, Fields{Title: "New Title"})
	require.NoError(t, err)
	s := string(merged)

	assert.Contains(t, s, "New Title")
	assert.NotContains(t, s, "Old Title")
	// Description wasn't part of this merge's Fields, so it's dropped —
	// MergeInto's contract is "replace these blocks with fresh content",
	// callers pass the full field set they want retained.
}

func TestMergeIntoErrorsWithoutDescriptionTag(t *testing.T) {
	_, err := MergeInto([]byte("<x:xmpmeta></x:xmpmeta>"), Fields{Title: "x"})
	require.Error(t, err)
}

func TestEscapeSpecialCharacters(t *testing.T) {
	out := BuildFresh(Fields{Title: `A & B < C > "D"`})
	s := string(out)
	assert.Contains(t, s, "A &amp; B &lt; C &gt; &quot;D&quot;")
}
