package tutor

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var svgElements = []string{
	"svg", "g", "defs", "marker", "title", "desc",
	"path", "line", "polyline", "polygon", "rect", "circle", "ellipse",
	"text", "tspan",
}

var svgAttributes = []string{
	"viewbox", "width", "height", "xmlns", "preserveaspectratio",
	"d", "x", "y", "x1", "y1", "x2", "y2", "cx", "cy", "r", "rx", "ry", "dx", "dy",
	"points", "transform",
	"fill", "fill-opacity", "stroke", "stroke-width", "stroke-dasharray", "stroke-linecap", "stroke-linejoin", "opacity",
	"font-size", "font-family", "font-weight", "text-anchor", "dominant-baseline",
	"id", "markerwidth", "markerheight", "refx", "refy", "orient", "marker-end", "marker-start",
}

// newSVGPolicy allows drawing primitives only; scripts, event handlers and
// external references are removed
func newSVGPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(svgElements...)
	p.AllowAttrs(svgAttributes...).OnElements(svgElements...)
	return p
}

// sanitizeDiagram returns safe SVG markup, or an empty string when nothing
// drawable is left
func (c *Client) sanitizeDiagram(markup string) string {
	markup = strings.TrimSpace(markup)
	if markup == "" {
		return ""
	}

	clean := strings.TrimSpace(c.svgPolicy.Sanitize(markup))
	if !strings.Contains(strings.ToLower(clean), "<svg") {
		return ""
	}
	return clean
}
