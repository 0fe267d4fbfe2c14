package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"inner spaces", "Go    and\t\tRust", "Go and Rust"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"nested bullets keep indent", "- top\n    - nested", "- top\n    - nested"},
		{"plain indent removed", "    indented line", "indented line"},
		{"outer whitespace", "\n\n  text  \n\n", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestExtractContact(t *testing.T) {
	info := ExtractContact("Jane Doe\nEmail: <jane.doe@example.com>, Phone: (555) 123-4567\nBSc 2014 - 2018")
	require.NotNil(t, info)
	assert.Equal(t, "jane.doe@example.com", info.Email)
	assert.Equal(t, "(555) 123-4567", info.Phone)

	info = ExtractContact("reach me at mailto:sam@corp.io.")
	require.NotNil(t, info)
	assert.Equal(t, "sam@corp.io", info.Email)
	assert.Empty(t, info.Phone)

	assert.Nil(t, ExtractContact("No contact details, worked 2014 - 2018 @ Acme"))
}

func TestFindEmail_SkipsNonAddresses(t *testing.T) {
	assert.Equal(t, "", FindEmail("handle @gopher and foo@bar"))
	assert.Equal(t, "a.b+tag@mail.example.org", FindEmail("x@y then a.b+tag@mail.example.org"))
}

func TestMetadata_ToJSON(t *testing.T) {
	m := NewMetadata("hello", "https://example.com/job")
	data, err := m.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source": "https://example.com/job"`)
	assert.Contains(t, string(data), `"chars": 5`)
	assert.Equal(t, computeHash("hello"), m.Hash)
}

func TestIngestFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><nav>Menu</nav><main><h2>Requirements</h2><ul><li>Go experience</li></ul></main></body></html>`))
	}))
	defer server.Close()

	doc, err := IngestFromURL(context.Background(), server.URL, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "Requirements\nGo experience", doc.Text)
	assert.Equal(t, "unknown", doc.Metadata.Platform)
	assert.Equal(t, server.URL, doc.Metadata.Source)
}

func TestIngestFromURL_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	_, err := IngestFromURL(context.Background(), failing.URL, false, nil)
	assert.ErrorIs(t, err, ErrHTTPRequestFailed)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><script>app()</script></body></html>`))
	}))
	defer empty.Close()

	_, err = IngestFromURL(context.Background(), empty.URL, false, nil)
	assert.ErrorIs(t, err, ErrNoContent)
}
