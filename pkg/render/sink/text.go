package sink

import (
	"bytes"
	"encoding/xml"
)

const fontCharWidth = 0.55

// truncate shortens s so it fits width at the given font size.
func truncate(s string, width, fontSize float64) string {
	maxChars := max(3, int(width/(fontSize*fontCharWidth)))
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
