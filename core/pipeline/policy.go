package pipeline

import (
	"strings"

	"github.com/ankit-chaubey/photometa/core"
	"github.com/ankit-chaubey/photometa/core/gps"
)

// decisions is the single point (§4.F) mapping a FieldPolicy, the image's
// existing metadata, and an AiResult down to which fields actually get
// written this run, and which are skipped (with a reason recorded for
// WriteOutcome.SkippedFields).
type decisions struct {
	title, description, gps, keywords, subject bool
	skipped                                    []string
}

func decide(policy core.FieldPolicy, existing *core.ExistingMetadata, ai core.AiResult) decisions {
	var d decisions

	d.title = wantField(policy.WriteTitle, ai.Title != nil && *ai.Title != "", existing.HasTitle, policy.OverwriteExisting, "title", &d.skipped)
	d.description = wantField(policy.WriteDescription, ai.Description != nil && *ai.Description != "", existing.HasDesc, policy.OverwriteExisting, "description", &d.skipped)
	d.keywords = wantField(policy.WriteTags, len(ai.Tags) > 0, existing.HasKeywords, policy.OverwriteExisting, "tags", &d.skipped)
	d.subject = wantField(policy.WriteSubject, len(ai.Subject) > 0, existing.HasSubject, policy.OverwriteExisting, "subject", &d.skipped)

	// GPS never overwrites an existing coordinate, regardless of
	// OverwriteExisting — per the Open Question decision recorded in
	// DESIGN.md, a camera's own GPS fix is trusted over an AI guess.
	d.gps = wantField(policy.WriteGPS, ai.GPS != nil && gps.Valid(ai.GPS.Latitude, ai.GPS.Longitude), existing.HasGPS, false, "gps", &d.skipped)

	return d
}

func wantField(policyAllows, aiProvided, existingPresent, overwrite bool, name string, skipped *[]string) bool {
	if !policyAllows {
		return false
	}
	if !aiProvided {
		return false
	}
	if existingPresent && !overwrite {
		*skipped = append(*skipped, name+" (existing)")
		return false
	}
	return true
}

// keywordsJoined renders a tag list as the "; "-joined string the
// XPKeywords/XPSubject EXIF tags carry, order preserved. dc:subject and the
// IPTC keyword records take the list item by item instead.
func keywordsJoined(tags []string) string {
	return strings.Join(tags, "; ")
}
