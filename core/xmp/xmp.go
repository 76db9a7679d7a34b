// Package xmp builds and merges XMP packets carrying AI-generated title,
// description, and keywords (as dc:subject). Merging is deliberately
// string-level regex manipulation over the existing packet rather than a
// full DOM round-trip, the way nir0k/GeoRAW's sidecar writer merges GPS
// attributes into rdf:Description in place — preserving every element and
// attribute the codec doesn't itself own. The merged packet body is then
// re-indented, so its original whitespace is not kept.
package xmp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-xmlfmt/xmlfmt"
)

const (
	dcNamespace       = "http://purl.org/dc/elements/1.1/"
	photoshopNS       = "http://ns.adobe.com/photoshop/1.0/"
	rdfNamespace      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xPacketID         = "W5M0MpCehiHzreSzNTczkc9d"
	captionWriterTool = "AI"
)

var descriptionTagRegex = regexp.MustCompile(`(?is)<rdf:Description\b[^>]*>`)

var blockRegexes = map[string]*regexp.Regexp{
	"dc:title":               regexp.MustCompile(`(?is)<dc:title\b[^>]*>.*?</dc:title>`),
	"dc:description":         regexp.MustCompile(`(?is)<dc:description\b[^>]*>.*?</dc:description>`),
	"dc:subject":             regexp.MustCompile(`(?is)<dc:subject\b[^>]*>.*?</dc:subject>`),
	"photoshop:Headline":     regexp.MustCompile(`(?is)<photoshop:Headline\b[^>]*>.*?</photoshop:Headline>`),
	"photoshop:CaptionWriter": regexp.MustCompile(`(?is)<photoshop:CaptionWriter\b[^>]*>.*?</photoshop:CaptionWriter>`),
}

// Fields is the set of values BuildFresh/MergeInto embed. Empty/nil fields
// are omitted entirely rather than written as empty elements.
type Fields struct {
	Title       string
	Description string
	Keywords    []string
}

// BuildFresh constructs a complete, minimal XMP packet from scratch.
func BuildFresh(f Fields) []byte {
	var body strings.Builder
	body.WriteString(`<rdf:Description rdf:about=""`)
	body.WriteString(fmt.Sprintf(` xmlns:dc=%q xmlns:photoshop=%q>`, dcNamespace, photoshopNS))
	body.WriteString("\n")
	writeBlocks(&body, f)
	body.WriteString("</rdf:Description>\n")

	var out strings.Builder
	out.WriteString(fmt.Sprintf("<?xpacket begin=\"\xef\xbb\xbf\" id=%q?>", xPacketID))
	out.WriteString("\n<x:xmpmeta xmlns:x=\"adobe:ns:meta/\">\n")
	out.WriteString(fmt.Sprintf("  <rdf:RDF xmlns:rdf=%q>\n", rdfNamespace))
	out.WriteString(indent(body.String(), "    "))
	out.WriteString("  </rdf:RDF>\n")
	out.WriteString("</x:xmpmeta>\n")
	out.WriteString(`<?xpacket end="w"?>`)

	return []byte(reindent(out.String()))
}

// MergeInto splices Fields into an existing XMP packet's first
// rdf:Description, replacing any prior dc:title/dc:description/dc:subject/
// photoshop:Headline/photoshop:CaptionWriter blocks and leaving everything
// else in the packet untouched. Returns an error if no rdf:Description tag
// can be located, in which case the caller should fall back to BuildFresh.
func MergeInto(existing []byte, f Fields) ([]byte, error) {
	text := string(existing)
	loc := descriptionTagRegex.FindStringIndex(text)
	if loc == nil {
		return nil, fmt.Errorf("xmp: rdf:Description tag not found")
	}

	openTag := text[loc[0]:loc[1]]
	openTag = ensureNamespace(openTag, "dc", dcNamespace)
	openTag = ensureNamespace(openTag, "photoshop", photoshopNS)

	closeIdx := strings.Index(text[loc[1]:], "</rdf:Description>")
	if closeIdx < 0 {
		return nil, fmt.Errorf("xmp: unterminated rdf:Description")
	}
	closeIdx += loc[1]
	bodyEnd := closeIdx
	innerBody := text[loc[1]:bodyEnd]

	for _, re := range blockRegexes {
		innerBody = re.ReplaceAllString(innerBody, "")
	}

	var fresh strings.Builder
	writeBlocks(&fresh, f)

	merged := text[:loc[0]] + openTag + innerBody + fresh.String() + text[closeIdx:]
	return []byte(reindent(merged)), nil
}

func writeBlocks(b *strings.Builder, f Fields) {
	if f.Title != "" {
		b.WriteString("<dc:title><rdf:Alt><rdf:li xml:lang=\"x-default\">")
		b.WriteString(escape(f.Title))
		b.WriteString("</rdf:li></rdf:Alt></dc:title>\n")
		b.WriteString("<photoshop:Headline>")
		b.WriteString(escape(f.Title))
		b.WriteString("</photoshop:Headline>\n")
	}
	if f.Description != "" {
		b.WriteString("<dc:description><rdf:Alt><rdf:li xml:lang=\"x-default\">")
		b.WriteString(escape(f.Description))
		b.WriteString("</rdf:li></rdf:Alt></dc:description>\n")
	}
	if len(f.Keywords) > 0 {
		b.WriteString("<dc:subject><rdf:Bag>\n")
		for _, kw := range f.Keywords {
			b.WriteString("<rdf:li>")
			b.WriteString(escape(kw))
			b.WriteString("</rdf:li>\n")
		}
		b.WriteString("</rdf:Bag></dc:subject>\n")
	}
	if f.Title != "" || f.Description != "" || len(f.Keywords) > 0 {
		b.WriteString(fmt.Sprintf("<photoshop:CaptionWriter>%s</photoshop:CaptionWriter>\n", captionWriterTool))
	}
}

func ensureNamespace(tag, prefix, uri string) string {
	attr := "xmlns:" + prefix
	if strings.Contains(tag, attr+"=") {
		return tag
	}
	closeIdx := strings.LastIndex(tag, ">")
	if closeIdx < 0 {
		return tag
	}
	prefixPart := tag[:closeIdx]
	suffix := tag[closeIdx:]
	if strings.HasSuffix(prefixPart, "/") {
		prefixPart = strings.TrimSuffix(prefixPart, "/")
		suffix = "/>"
	}
	return fmt.Sprintf("%s %s=%q%s", prefixPart, attr, uri, suffix)
}

func escape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n") + "\n"
}

// reindent re-flows the packet's XML body through xmlfmt so the merged
// output's indentation matches what a DOM-based writer would produce,
// leaving the xpacket processing instructions (which xmlfmt doesn't
// understand) untouched.
func reindent(packet string) string {
	beginIdx := strings.Index(packet, "?>")
	endIdx := strings.LastIndex(packet, "<?xpacket end")
	if beginIdx < 0 || endIdx < 0 || endIdx <= beginIdx {
		return packet
	}
	head := packet[:beginIdx+2]
	body := packet[beginIdx+2 : endIdx]
	tail := packet[endIdx:]

	formatted := xmlfmt.FormatXML(strings.TrimSpace(body), "", "  ")
	return head + "\n" + strings.TrimSpace(formatted) + "\n" + tail
}
