package wire

// PathSegment is one stroke of a scribble, using SVG path data.
type PathSegment struct {
	// D is the SVG path data for the stroke.
	D string `json:"d"`
	// Color is the stroke color, e.g. "#ff3b6b".
	Color string `json:"color"`
	// StrokeWidth is the stroke width in canvas points.
	StrokeWidth float64 `json:"strokeWidth"`
}

// Scribble is the partner's most recent drawing.
type Scribble struct {
	// Paths are the strokes in drawing order.
	Paths []PathSegment `json:"paths"`
	// FromUserName is the sender's display name.
	FromUserName string `json:"fromUserName"`
	// Timestamp is the server supplied send time, passed through verbatim.
	Timestamp string `json:"timestamp"`
}

// ClonePaths returns a copy of paths so callers cannot alias a slice held by
// reconciled state.
func ClonePaths(paths []PathSegment) []PathSegment {
	if paths == nil {
		return nil
	}
	out := make([]PathSegment, len(paths))
	copy(out, paths)
	return out
}
