// Package download streams a media URL to disk.
//
// A file at its final path is always complete: bytes go to a temp sibling
// named __temp__<basename>, which is renamed into place only after the whole
// body has been written and synced. An interrupted transfer leaves the temp
// file behind and the next attempt overwrites it.
package download
