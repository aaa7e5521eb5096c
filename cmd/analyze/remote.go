package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/agenthands/leafcheck/internal/core/model"
)

type envelope struct {
	Result *model.Record `json:"result"`
	Error  string        `json:"error"`
}

// postImage sends the image to a running server's /analyze endpoint.
func postImage(ctx context.Context, client *http.Client, baseURL, filename, mimeType string, data []byte) (*model.Record, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/analyze", &body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("request failed with status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || env.Result == nil {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, env.Error)
	}
	return env.Result, nil
}
