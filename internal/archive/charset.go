package archive

import (
	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func init() {
	// Charsets seen in the wild that go-message does not register itself.
	asciiEncoding := unicode.UTF8 // ASCII is a UTF-8 subset
	charset.RegisterEncoding("ascii", asciiEncoding)
	charset.RegisterEncoding("us-ascii", asciiEncoding)
	charset.RegisterEncoding("ASCII", asciiEncoding)
	charset.RegisterEncoding("US-ASCII", asciiEncoding)

	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("WINDOWS-1252", charmap.Windows1252)
	charset.RegisterEncoding("cp1252", charmap.Windows1252)
	charset.RegisterEncoding("CP1252", charmap.Windows1252)

	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("ISO-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("latin1", charmap.ISO8859_1)
	charset.RegisterEncoding("LATIN1", charmap.ISO8859_1)
}
