package chunkmodel

import (
	"errors"
	"fmt"
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
)

// ErrMarkerClassMissing means the chunk wrapper start markup does not carry
// the chunk marker class, so materialized wrappers would never get the
// ready class.
var ErrMarkerClassMissing = errors.New("chunk wrapper markup lacks the marker class")

// Options configures a Model.
type Options struct {
	ChunkSize        int    `yaml:"chunkSize"`
	ChunkMarkerClass string `yaml:"chunkMarkerClass"`
	ReadyClass       string `yaml:"readyClass"`
	TemplateStart    string `yaml:"templateStart"`
	TemplateEnd      string `yaml:"templateEnd"`
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ChunkSize:        50,
		ChunkMarkerClass: "chunk",
		ReadyClass:       "chunk-ready",
		TemplateStart:    WrapperStart("chunk"),
		TemplateEnd:      `</div>`,
	}
}

// WrapperStart returns a div start tag carrying class.
func WrapperStart(class string) string {
	return fmt.Sprintf(`<div class="%s">`, html.EscapeString(class))
}

// WithDefaults fills zero fields from DefaultOptions. A missing wrapper is
// built from the marker class.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.ChunkMarkerClass == "" {
		o.ChunkMarkerClass = d.ChunkMarkerClass
	}
	if o.ReadyClass == "" {
		o.ReadyClass = d.ReadyClass
	}
	if o.TemplateStart == "" {
		o.TemplateStart = WrapperStart(o.ChunkMarkerClass)
		o.TemplateEnd = d.TemplateEnd
	}
	return o
}

// Validate checks that the wrapper markup is usable: it must close, and its
// first start tag must carry the marker class.
func (o Options) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", o.ChunkSize)
	}
	if strings.TrimSpace(o.TemplateEnd) == "" {
		return fmt.Errorf("templateEnd is required with templateStart %q", o.TemplateStart)
	}
	if !startTagHasClass(o.TemplateStart, o.ChunkMarkerClass) {
		return fmt.Errorf("%w: %q does not carry class %q", ErrMarkerClassMissing, o.TemplateStart, o.ChunkMarkerClass)
	}
	return nil
}

func startTagHasClass(markup, class string) bool {
	z := nethtml.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			return false
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			for _, a := range z.Token().Attr {
				if a.Key != "class" {
					continue
				}
				for _, c := range strings.Fields(a.Val) {
					if c == class {
						return true
					}
				}
			}
			return false
		}
	}
}
