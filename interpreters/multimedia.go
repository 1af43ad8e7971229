package interpreters

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
)

var mediaTypes = map[string]struct{ typ, format string }{
	".jpg":  {"StillImage", "image/jpeg"},
	".jpeg": {"StillImage", "image/jpeg"},
	".png":  {"StillImage", "image/png"},
	".gif":  {"StillImage", "image/gif"},
	".tif":  {"StillImage", "image/tiff"},
	".tiff": {"StillImage", "image/tiff"},
	".mp3":  {"Sound", "audio/mpeg"},
	".wav":  {"Sound", "audio/x-wav"},
	".ogg":  {"Sound", "audio/ogg"},
	".mp4":  {"MovingImage", "video/mp4"},
	".mov":  {"MovingImage", "video/quicktime"},
}

// InterpretMediaItem checks that raw is an http(s) URL and guesses its type
// and format from the file extension.
func InterpretMediaItem(raw string) opdk.Result[records.MediaItem] {
	uri := InterpretURI(opdk.MultimediaURIInvalid, "multimedia")(raw)
	if !uri.OK() {
		return opdk.Map(uri, func(string) records.MediaItem { return records.MediaItem{} })
	}
	s, _ := uri.Get()
	u, _ := url.Parse(s)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nulled[records.MediaItem](opdk.MultimediaURIInvalid, "multimedia", "'"+s+"' is not an http(s) URL")
	}
	item := records.MediaItem{Identifier: s}
	if t, ok := mediaTypes[strings.ToLower(path.Ext(u.Path))]; ok {
		item.Type, item.Format = t.typ, t.format
	}
	return opdk.Ok(item)
}

// splitMedia splits a list of media URLs on '|', ';' and whitespace. A
// comma only separates two entries when a URL scheme follows it, so commas
// inside a URL's query survive.
func splitMedia(raw string) []string {
	var ret []string
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ';' || unicode.IsSpace(r) }) {
		start := 0
		for i := 0; i < len(f); i++ {
			if f[i] != ',' {
				continue
			}
			rest := strings.ToLower(f[i+1:])
			if strings.HasPrefix(rest, "http://") || strings.HasPrefix(rest, "https://") {
				if p := f[start:i]; p != "" {
					ret = append(ret, p)
				}
				start = i + 1
			}
		}
		if p := strings.TrimRight(f[start:], ","); p != "" {
			ret = append(ret, p)
		}
	}
	return ret
}

// AssociatedMedia sets the media items listed in associatedMedia. Invalid
// entries are dropped, each with its own issue.
func AssociatedMedia(er *opdk.VerbatimRecord, mr *records.MultimediaRecord) opdk.Interpretation[struct{}] {
	raw, ok := er.NullAwareValue(opdk.DwcAssociatedMedia)
	if !ok {
		return opdk.Done()
	}
	acc := opdk.Done()
	for _, v := range splitMedia(raw) {
		res := InterpretMediaItem(v)
		if item, ok := res.Get(); ok {
			mr.Items = append(mr.Items, item)
			continue
		}
		acc = opdk.Then(acc, opdk.Discard(res.Interpretation(opdk.DwcAssociatedMedia.SimpleName())))
	}
	return acc
}
