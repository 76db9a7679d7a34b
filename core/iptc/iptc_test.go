package iptc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrMergeAPP13Fresh(t *testing.T) {
	out := BuildOrMergeAPP13(nil, Fields{Title: "Sunset", Description: "A nice one", Keywords: []string{"a", "b"}})
	resources := parseResources(out)
	require.Len(t, resources, 1)
	assert.Equal(t, iimResourceID, resources[0].id)

	records := parseIIMRecords(resources[0].data)
	assertHasRecord(t, records, datasetVersion, []byte{0x00, 0x02})
	assertHasRecord(t, records, datasetObjectName, []byte("Sunset"))
	assertHasRecord(t, records, datasetCaption, []byte("A nice one"))

	var keywordCount int
	for _, r := range records {
		if r.dataset == datasetKeywords {
			keywordCount++
		}
	}
	assert.Equal(t, 2, keywordCount)
}

func TestBuildOrMergeAPP13PreservesOtherResources(t *testing.T) {
	other := resource{id: 0x03ED, name: "", data: []byte{0, 0, 0, 1}}
	existing := serializeResources([]resource{other})

	out := BuildOrMergeAPP13(existing, Fields{Title: "New"})
	resources := parseResources(out)
	require.Len(t, resources, 2)

	var sawOther, sawIIM bool
	for _, r := range resources {
		if r.id == 0x03ED {
			sawOther = true
			assert.Equal(t, other.data, r.data)
		}
		if r.id == iimResourceID {
			sawIIM = true
		}
	}
	assert.True(t, sawOther)
	assert.True(t, sawIIM)
}

func TestBuildOrMergeAPP13ReplacesExistingIIM(t *testing.T) {
	first := BuildOrMergeAPP13(nil, Fields{Title: "Old"})
	second := BuildOrMergeAPP13(first, Fields{Title: "New"})

	resources := parseResources(second)
	require.Len(t, resources, 1)
	records := parseIIMRecords(resources[0].data)
	assertHasRecord(t, records, datasetObjectName, []byte("New"))
	for _, r := range records {
		if r.dataset == datasetObjectName {
			assert.NotEqual(t, []byte("Old"), r.payload)
		}
	}
}

func TestTruncateLongTitle(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	out := truncate(string(long), maxObjectNameLen)
	assert.Len(t, out, maxObjectNameLen)
}

// --- test helpers: a tiny IIM-record parser mirroring iimRecord's layout ---

type iimRec struct {
	dataset byte
	payload []byte
}

func parseIIMRecords(data []byte) []iimRec {
	var out []iimRec
	pos := 0
	for pos+5 <= len(data) {
		if data[pos] != iimMarker {
			break
		}
		dataset := data[pos+2]
		size := int(data[pos+3])<<8 | int(data[pos+4])
		pos += 5
		if pos+size > len(data) {
			break
		}
		out = append(out, iimRec{dataset: dataset, payload: data[pos : pos+size]})
		pos += size
	}
	return out
}

func assertHasRecord(t *testing.T, records []iimRec, dataset byte, payload []byte) {
	t.Helper()
	for _, r := range records {
		if r.dataset == dataset {
			assert.Equal(t, payload, r.payload)
			return
		}
	}
	t.Fatalf("no record found for dataset %d", dataset)
}
