package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aaandrangom/biblioteca-api/models"
)

var editionSeed = regexp.MustCompile(`/books/(OL\d+M)`)

// CoverFinder resolves a cover image for a book title from an external catalog
type CoverFinder interface {
	FindCover(ctx context.Context, title string) (*models.Cover, error)
}

// OpenLibraryService finds covers through the Open Library search API
type OpenLibraryService struct {
	baseURL       string
	coversBaseURL string
	httpClient    *http.Client
}

// NewOpenLibraryService creates an Open Library client
func NewOpenLibraryService(baseURL, coversBaseURL string) *OpenLibraryService {
	return &OpenLibraryService{
		baseURL:       strings.TrimRight(baseURL, "/"),
		coversBaseURL: strings.TrimRight(coversBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type openLibrarySearch struct {
	Docs []struct {
		Title string   `json:"title"`
		Seed  []string `json:"seed"`
	} `json:"docs"`
}

// FindCover searches title and builds the large cover URL of the first edition of the first match
func (s *OpenLibraryService) FindCover(ctx context.Context, title string) (*models.Cover, error) {
	endpoint := fmt.Sprintf("%s/search.json?title=%s", s.baseURL, url.QueryEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Open Library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open library returned status %d", resp.StatusCode)
	}

	var result openLibrarySearch
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode Open Library response: %w", err)
	}

	if len(result.Docs) == 0 {
		return nil, ErrCoverNotFound
	}

	for _, seed := range result.Docs[0].Seed {
		if m := editionSeed.FindStringSubmatch(seed); m != nil {
			return &models.Cover{
				Title:     title,
				TitleKey:  models.NormalizeTitle(title),
				URL:       fmt.Sprintf("%s/b/olid/%s-L.jpg", s.coversBaseURL, m[1]),
				EditionID: m[1],
			}, nil
		}
	}

	return nil, ErrCoverNotFound
}
