package manifest

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
)

const extensionsBody = `{"assetRequestHeaders": {}}`

// WriteResponse emits resp as the multipart/mixed body spec.md §4.8
// requires: a manifest part (carrying expo-signature inline, inside the
// part's own headers, when signed) followed by a fixed extensions part.
// Hand-written rather than mime/multipart.Writer: the client parser needs
// the expo-signature header to sit directly in the manifest part's header
// block, and needs the exact header casing/ordering below, neither of
// which the stdlib encoder's generic MIME header map guarantees.
func WriteResponse(w http.ResponseWriter, resp *Response) error {
	boundary := newBoundary()

	w.Header().Set("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%s", boundary))
	w.Header().Set("expo-protocol-version", protocolVersionOrDefault(resp.ProtocolVersion))
	w.Header().Set("expo-sfv-version", "0")
	w.Header().Set("Cache-Control", "private, max-age=0")
	if resp.Signature != "" {
		w.Header().Set("expo-signature", resp.Signature)
	}
	w.WriteHeader(http.StatusOK)

	body := encodeBody(boundary, resp)
	_, err := w.Write(body)
	return err
}

func encodeBody(boundary string, resp *Response) []byte {
	buf := &bytes.Buffer{}

	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Type: application/json; charset=utf-8\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="manifest"` + "\r\n")
	if resp.Signature != "" {
		buf.WriteString("expo-signature: " + resp.Signature + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(resp.ManifestJSON)
	buf.WriteString("\r\n")

	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Type: application/json\r\n")
	buf.WriteString(`Content-Disposition: form-data; name="extensions"` + "\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(extensionsBody)
	buf.WriteString("\r\n")

	buf.WriteString("--" + boundary + "--\r\n")

	return buf.Bytes()
}

func newBoundary() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func protocolVersionOrDefault(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
