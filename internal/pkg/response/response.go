package response

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/futig/vitos-assistant/internal/entity"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// headers are already sent, nothing useful to do with an encode error
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes the standard error body. message must be safe to show to clients.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// File writes a downloadable attachment
func File(w http.ResponseWriter, file *entity.ExportFile) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}
