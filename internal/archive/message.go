package archive

import (
	"bytes"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/mailarc/mailarc/internal/fsname"
)

var wordDecoder = mime.WordDecoder{CharsetReader: charset.Reader}

// parseMessage parses raw message bytes into an entity. Unknown charsets are
// tolerated; a structurally broken message yields nil and the raw bytes are
// still archived without attachment extraction.
func (a *Archiver) parseMessage(raw []byte, uid uint32) *message.Entity {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		a.logger.Debug("failed to parse message structure", "uid", uid, "error", err)
		return nil
	}
	return entity
}

// subject returns the decoded Subject header, or "No Subject".
func (a *Archiver) subject(entity *message.Entity) string {
	if entity == nil {
		return "No Subject"
	}

	header := mail.Header{Header: entity.Header}
	subject, err := header.Subject()
	if err != nil {
		// Best effort: the undecoded value is still usable as a name.
		a.logger.Debug("failed to decode subject", "error", err)
	}
	if subject == "" {
		return "No Subject"
	}
	return subject
}

// saveAttachments walks a multipart message and writes every part that
// declares itself an attachment or inline content with a filename. Returns
// the number of files written. Single-part messages never yield attachments.
func (a *Archiver) saveAttachments(entity *message.Entity, messageDir string, uid uint32) int {
	if entity == nil {
		return 0
	}
	if mediaType, _, err := entity.Header.ContentType(); err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return 0
	}

	count := 0
	walkErr := entity.Walk(func(path []int, part *message.Entity, err error) error {
		if err != nil {
			a.logger.Debug("skipping malformed part", "uid", uid, "error", err)
			return nil
		}
		if a.saveAttachment(part, messageDir, uid) {
			count++
		}
		return nil
	})
	if walkErr != nil {
		a.logger.Warn("failed to walk message parts", "uid", uid, "error", walkErr)
	}

	return count
}

// saveAttachment writes one part if it is an attachment. Parts without a
// filename or with an empty payload are skipped silently.
func (a *Archiver) saveAttachment(part *message.Entity, messageDir string, uid uint32) bool {
	disposition, params, err := part.Header.ContentDisposition()
	if err != nil || (disposition != "attachment" && disposition != "inline") {
		return false
	}

	filename := params["filename"]
	if filename == "" {
		if _, ctParams, err := part.Header.ContentType(); err == nil {
			filename = ctParams["name"]
		}
	}
	if filename == "" {
		return false
	}

	name := fsname.Sanitize(decodeFilename(filename))
	if name == "" {
		return false
	}

	// Body is already transfer-decoded by go-message.
	payload, err := io.ReadAll(part.Body)
	if err != nil {
		a.logger.Debug("failed to decode attachment payload", "uid", uid, "filename", name, "error", err)
		return false
	}
	if len(payload) == 0 {
		return false
	}

	target := fsname.ResolveCollision(messageDir, name)
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		a.logger.Warn("failed to write attachment", "uid", uid, "filename", name, "error", err)
		return false
	}

	return true
}

// decodeFilename resolves RFC 2047 encoded words that some senders embed in
// filename parameters.
func decodeFilename(filename string) string {
	decoded, err := wordDecoder.DecodeHeader(filename)
	if err != nil {
		return filename
	}
	return decoded
}
