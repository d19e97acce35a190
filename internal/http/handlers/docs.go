package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Barber Availability API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = () => {
      window.ui = SwaggerUIBundle({ url: "/docs/openapi.json", dom_id: "#swagger-ui", deepLinking: true });
    };
  </script>
</body>
</html>
`

// DocsHandler serves the OpenAPI document and a Swagger UI page that loads it.
type DocsHandler struct {
	spec []byte
}

// NewDocsHandler validates that spec is a JSON document before serving it.
func NewDocsHandler(spec []byte) (*DocsHandler, error) {
	if !json.Valid(spec) {
		return nil, fmt.Errorf("handlers: openapi document is not valid JSON")
	}
	return &DocsHandler{spec: bytes.Clone(spec)}, nil
}

// OpenAPI handles GET /docs/openapi.json.
func (h *DocsHandler) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}

// UI handles GET /docs.
func (h *DocsHandler) UI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(docsPage))
}
