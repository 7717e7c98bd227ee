package extract

import (
	"bilidl/internal/services"
)

// Extractor tries its schemas in order and keeps the first match.
type Extractor struct {
	schemas []Schema
}

// New builds an Extractor over the given schemas. With no schemas it uses the
// built-in ones.
func New(schemas ...Schema) *Extractor {
	if len(schemas) == 0 {
		schemas = builtin()
	}
	return &Extractor{schemas: schemas}
}

// Default returns an Extractor that knows the combined and dash layouts, in
// that order.
func Default() *Extractor {
	return New()
}

func builtin() []Schema {
	return []Schema{combinedSchema{}, dashSchema{}}
}

// Extract parses html once and reads the page list and play info from it. It
// fails only when neither can be read; callers check PagesErr or PlayErr for
// the half they need.
func (e *Extractor) Extract(html string) (Document, error) {
	scripts := scriptBodies(html)
	var doc Document
	doc.Pages, doc.Schema, doc.pagesErr = e.pages(scripts)
	var playSchema string
	doc.Play, playSchema, doc.playErr = e.playInfo(scripts)
	if doc.Schema == "" {
		doc.Schema = playSchema
	}
	if doc.pagesErr != nil && doc.playErr != nil {
		return Document{}, doc.pagesErr
	}
	return doc, nil
}

// Pages returns the page list of html.
func (e *Extractor) Pages(html string) ([]PageEntry, error) {
	pages, _, err := e.pages(scriptBodies(html))
	return pages, err
}

// PlayInfo returns the stream URLs of html.
func (e *Extractor) PlayInfo(html string) (PlayInfo, error) {
	info, _, err := e.playInfo(scriptBodies(html))
	return info, err
}

func (e *Extractor) pages(scripts []string) ([]PageEntry, string, error) {
	errs := make(map[string]error, len(e.schemas))
	for _, schema := range e.schemas {
		pages, err := schema.Pages(scripts)
		if err == nil {
			return pages, schema.Name(), nil
		}
		errs[schema.Name()] = err
	}
	return nil, "", services.Wrap(services.ErrSchemaMismatch, "extract", "page list", schemaErrors(errs, e.schemas), nil)
}

func (e *Extractor) playInfo(scripts []string) (PlayInfo, string, error) {
	errs := make(map[string]error, len(e.schemas))
	for _, schema := range e.schemas {
		info, err := schema.PlayInfo(scripts)
		if err == nil {
			return info, schema.Name(), nil
		}
		errs[schema.Name()] = err
	}
	return PlayInfo{}, "", services.Wrap(services.ErrSchemaMismatch, "extract", "play info", schemaErrors(errs, e.schemas), nil)
}
