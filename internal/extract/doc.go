// Package extract pulls the embedded JSON state out of a bilibili video page.
//
// A page carries its sub-page list and stream URLs inside inline scripts.
// The exact layout differs between the mobile and desktop renderings, so the
// package holds an ordered list of Schema strategies and returns the result
// of the first one that recognises the page. Anything that does not match a
// known layout fails with services.ErrSchemaMismatch; partial results are
// never returned.
package extract
