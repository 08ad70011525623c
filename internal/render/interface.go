package render

import (
	"github.com/otranscribe/otranscribe/internal/transcript"
)

// Renderer turns a finished run into the output document.
type Renderer interface {
	// Write renders in and writes the document to path.
	Write(path string, in Input) error
	// Extension is the file extension of the documents this renderer writes.
	Extension() string
}

// Input is what a run hands to the renderer. Payload is the engine (or
// merged) payload in Format; Transcript is its parsed form and is required
// in final mode.
type Input struct {
	Title      string
	Payload    []byte
	Format     transcript.Format
	Transcript *transcript.Transcript
}

// Block is one marker in a final transcript: a timestamp, an optional
// speaker label and the text that follows until the next marker.
type Block struct {
	Start   float64
	Speaker string
	Text    string
}
