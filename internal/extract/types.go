package extract

// Schema names.
const (
	SchemaCombined = "combined"
	SchemaDash     = "dash"
)

// PageEntry is one row of a multi-part video's page list.
type PageEntry struct {
	Index int
	Title string
}

// PlayInfo holds the stream URLs for a single sub-page.
type PlayInfo struct {
	Schema   string
	VideoURL string
	AudioURL string
}

// MediaURL returns the stream the downloader fetches. Combined pages expose a
// single muxed stream; dash pages expose the audio stream, which is all the
// MP3 output needs.
func (p PlayInfo) MediaURL() string {
	if p.Schema == SchemaDash && p.AudioURL != "" {
		return p.AudioURL
	}
	if p.VideoURL != "" {
		return p.VideoURL
	}
	return p.AudioURL
}

// Document is a parsed page. Pages and Play are populated independently so a
// page that only carries one of them can still be inspected.
type Document struct {
	Schema string
	Pages  []PageEntry
	Play   PlayInfo

	pagesErr error
	playErr  error
}

// PagesErr reports why Pages is empty, if it is.
func (d Document) PagesErr() error { return d.pagesErr }

// PlayErr reports why Play is empty, if it is.
func (d Document) PlayErr() error { return d.playErr }
