// Package deps locates the external binaries bilidl drives and reports
// whether they are usable.
package deps
