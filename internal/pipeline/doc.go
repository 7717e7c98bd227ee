// Package pipeline drives one bilidl run: resolve the canonical URL into
// sub-pages, then download and transcode each sub-page in order.
//
// Resolution failures abort the run. Failures inside a sub-page are logged,
// recorded on that page's Result and do not stop the remaining pages. Every
// step checks for its finished artifact first, so re-running a completed URL
// does no network or encoding work.
package pipeline
