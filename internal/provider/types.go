package provider

import (
	"encoding/json"
	"fmt"
	"time"
)

// NewsItem is one article in a news search response.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// SocialItem is one post in a social search response.
type SocialItem struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	URL         string    `json:"url"`
	Author      string    `json:"author"`
	Platform    string    `json:"platform"`
	PublishedAt time.Time `json:"published_at"`
}

type NewsResponse struct {
	Items []NewsItem `json:"items"`
}

type SocialResponse struct {
	Items []SocialItem `json:"items"`
}

func ParseNewsResponse(body []byte) (*NewsResponse, error) {
	var resp NewsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}
	return &resp, nil
}

func ParseSocialResponse(body []byte) (*SocialResponse, error) {
	var resp SocialResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse social response: %w", err)
	}
	return &resp, nil
}
