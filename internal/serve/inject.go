package serve

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

const scriptTag = `<script src="/livereload.js" defer></script>`

// withLiveReload wraps a handler and appends the livereload script to HTML
// responses. Only paths that can resolve to HTML are buffered; everything
// else streams through untouched.
func withLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if !(p == "/" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")) {
			next.ServeHTTP(w, r)
			return
		}
		iw := &injectWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(iw, r)
		iw.finalize()
	})
}

// injectWriter buffers a response so the script tag can be spliced in before
// </body> and the Content-Length corrected afterwards.
type injectWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (iw *injectWriter) WriteHeader(code int) { iw.status = code }

func (iw *injectWriter) Write(b []byte) (int, error) { return iw.buf.Write(b) }

func (iw *injectWriter) finalize() {
	body := iw.buf.Bytes()
	if iw.status == http.StatusOK && strings.Contains(iw.Header().Get("Content-Type"), "text/html") {
		if idx := bytes.LastIndex(body, []byte("</body>")); idx >= 0 {
			patched := make([]byte, 0, len(body)+len(scriptTag)+1)
			patched = append(patched, body[:idx]...)
			patched = append(patched, []byte(scriptTag)...)
			patched = append(patched, '\n')
			patched = append(patched, body[idx:]...)
			body = patched
		}
	}
	iw.Header().Set("Content-Length", strconv.Itoa(len(body)))
	iw.ResponseWriter.WriteHeader(iw.status)
	_, _ = iw.ResponseWriter.Write(body)
}
