package response

import (
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
	}{
		{name: "plain", fileName: "conversation-abc.md"},
		{name: "quote and space", fileName: `conversation-say "hi".md`},
		{name: "non ascii", fileName: "conversation-café.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			File(rec, &entity.ExportFile{
				FileName:    tt.fileName,
				ContentType: "text/markdown; charset=utf-8",
				Content:     []byte("# hi"),
			})

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "# hi", rec.Body.String())

			disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, tt.fileName, params["filename"])
		})
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "conversation not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Not Found","message":"conversation not found"}`, rec.Body.String())
}
