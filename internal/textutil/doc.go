// Package textutil turns page titles into names that are safe to use as file
// names on every platform bilidl runs on.
package textutil
