package httpapi

import (
	"errors"
	"io"
	"net/http"
)

const uploadField = "file"

// handleUpload accepts a multipart image under the "file" field and
// returns its public URL.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	if a.media == nil {
		writeMessage(w, http.StatusNotFound, "Uploads are disabled")
		return
	}

	// room for the multipart envelope around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload+64<<10)
	if err := r.ParseMultipartForm(a.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	if header.Size > a.maxUpload {
		writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	body, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	url, err := a.media.Upload(r.Context(), header.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, r, a.log, err, "Upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
