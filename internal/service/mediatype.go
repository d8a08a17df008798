package service

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

// contentTypes maps a lowercase extension to the MIME type sent on delivery.
var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"txt":  "text/plain; charset=utf-8",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// signatures lists extensions whose leading bytes are checked against the declared extension.
// Office formats are left out: legacy and OOXML files sniff as generic OLE/zip containers.
var signatures = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// sniffLen is how many leading bytes are inspected for the signature check.
const sniffLen = 3072

// extension returns the lowercase extension of name without the dot.
func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// normalizeKind turns a declared kind (".PDF", "pdf") into the lookup form.
func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(kind), "."))
}

// ContentTypeFor picks the delivery content type from the declared media kind, then from the
// extension of name, falling back to application/octet-stream.
func ContentTypeFor(mediaKind, name string) string {
	if ct, ok := contentTypes[normalizeKind(mediaKind)]; ok {
		return ct
	}
	if ct, ok := contentTypes[extension(name)]; ok {
		return ct
	}
	return defaultContentType
}

// declaredTypeAllowed reports whether a client supplied Content-Type is acceptable. Browsers send
// application/octet-stream for unknown files, so that is accepted and the extension decides.
func declaredTypeAllowed(ct string) bool {
	base, _, _ := strings.Cut(ct, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" || base == defaultContentType {
		return true
	}
	for _, v := range contentTypes {
		known, _, _ := strings.Cut(v, ";")
		if base == known {
			return true
		}
	}
	return base == "image/jpg"
}

// signatureMatches reports whether head is consistent with the extension.
func signatureMatches(ext string, head []byte) bool {
	want, ok := signatures[ext]
	if !ok {
		return true
	}
	return mimetype.Detect(head).Is(want)
}
