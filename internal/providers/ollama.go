package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docportal/internal/domain"
)

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaPullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// EnsureOllamaModels checks that Ollama is reachable at baseURL and pulls the
// models it does not have yet.
func EnsureOllamaModels(ctx context.Context, client *http.Client, baseURL string, models ...string) error {
	baseURL = strings.TrimRight(baseURL, "/")

	available, err := ollamaModels(ctx, client, baseURL)
	if err != nil {
		return domain.Wrap(domain.ErrProvider, err, "ollama is not running or not reachable at %s", baseURL)
	}

	for _, model := range models {
		if hasModel(available, model) {
			continue
		}
		if err := pullOllamaModel(ctx, client, baseURL, model); err != nil {
			return domain.Wrap(domain.ErrProvider, err, "pull ollama model %s", model)
		}
	}
	return nil
}

func ollamaModels(ctx context.Context, client *http.Client, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// hasModel matches "name" against "name:latest" as well as exact tags.
func hasModel(available []string, model string) bool {
	for _, name := range available {
		if name == model || name == model+":latest" {
			return true
		}
	}
	return false
}

func pullOllamaModel(ctx context.Context, client *http.Client, baseURL, model string) error {
	b, err := json.Marshal(ollamaPullRequest{Name: model, Stream: false})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/pull", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
