package router

import "net/http"

const (
	notFoundBody      = "Not found"
	internalErrorBody = "Internal Server Error"
)

// Response is the transport-independent result of handling one request.
// An empty ContentType means none is sent.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func notFound() Response {
	return Response{Status: http.StatusNotFound, Body: []byte(notFoundBody)}
}

func internalError() Response {
	return Response{Status: http.StatusInternalServerError, Body: []byte(internalErrorBody)}
}

// Write sends the response. When ContentType is empty the header is suppressed,
// so net/http does not sniff one from the body.
func (resp Response) Write(w http.ResponseWriter) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	} else {
		w.Header()["Content-Type"] = nil
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
