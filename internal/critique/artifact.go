package critique

import (
	"mime"
	"net/http"
	"path/filepath"
)

// DetectKind returns the MIME type of an artifact. A declared type wins
// unless it is empty or generic; then the file extension is consulted, then
// the leading bytes are sniffed.
func DetectKind(name, declared string, head []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if kind := mime.TypeByExtension(filepath.Ext(name)); kind != "" {
		return kind
	}
	if len(head) == 0 {
		if declared != "" {
			return declared
		}
		return DefaultArtifactKind
	}
	return http.DetectContentType(head)
}
