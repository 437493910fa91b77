package nafee3

import (
	"encoding/json"
	"errors"

	"github.com/nafee3/nafee3/embedding"
	"github.com/nafee3/nafee3/logger"
	"github.com/nafee3/nafee3/vector"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileConflict = errors.New("profile already exists")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrStore           = errors.New("vector store failure")
	ErrStartup         = errors.New("startup failure")
)

const (
	DefaultCollection = "nafee3-profiles"
	DefaultThreshold  = 0.1
	DefaultTopK       = 50

	// IDField is the keyword indexed payload field that mirrors the point id.
	IDField = "profile_id"

	// VectorName is the named dense vector derived from service_description.
	VectorName = "dense"
)

type Config struct {
	Collection string           `yaml:"collection"`
	Search     SearchConfig     `yaml:"search"`
	Loader     LoaderConfig     `yaml:"loader"`
	Embedding  embedding.Config `yaml:"embedding"`
	Vector     vector.Config    `yaml:"vector"`
	Log        logger.Config    `yaml:"log"`
}

type SearchConfig struct {
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"topK"`
}

type LoaderConfig struct {
	Concurrency int  `yaml:"concurrency"`
	Dedup       bool `yaml:"dedup"`

	// Source is loaded when a load request names none.
	Source string `yaml:"source"`
}

// DefaultConfig returns the configuration used for keys missing from the
// config file.
func DefaultConfig() Config {
	return Config{
		Collection: DefaultCollection,
		Search: SearchConfig{
			Threshold: DefaultThreshold,
			TopK:      DefaultTopK,
		},
		Loader: LoaderConfig{
			Concurrency: 4,
		},
		Embedding: embedding.Config{
			Provider:  embedding.ProviderHash,
			Dimension: embedding.DefaultDimension,
		},
		Vector: vector.Config{
			Backend: vector.BackendChromem,
		},
	}
}

type Profile struct {
	ProfileID          string   `json:"profile_id" yaml:"profile_id"`
	FullName           string   `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	PhoneNumber        string   `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	Email              string   `json:"email,omitempty" yaml:"email,omitempty"`
	DateOfBirth        string   `json:"date_of_birth,omitempty" yaml:"date_of_birth,omitempty"`
	ServiceCity        string   `json:"service_city,omitempty" yaml:"service_city,omitempty"`
	ServiceArea        string   `json:"service_area,omitempty" yaml:"service_area,omitempty"`
	ServiceDescription string   `json:"service_description,omitempty" yaml:"service_description,omitempty"`
	ProfilePhoto       string   `json:"profile_photo,omitempty" yaml:"profile_photo,omitempty"`
	PortfolioPhotos    []string `json:"portfolio_photos,omitempty" yaml:"portfolio_photos,omitempty"`
}

// Payload serializes the profile into the structured mapping stored next to
// its vector.
func (p Profile) Payload() (map[string]any, error) {
	bs, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(bs, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func ProfileFromPayload(payload map[string]any) (Profile, error) {
	var p Profile

	bs, err := json.Marshal(payload)
	if err != nil {
		return p, err
	}

	if err := json.Unmarshal(bs, &p); err != nil {
		return p, err
	}

	return p, nil
}

type SearchQuery struct {
	Query        string   `json:"query" form:"query"`
	SearchCity   string   `json:"search_city,omitempty" form:"search_city"`
	SearchArea   string   `json:"search_area,omitempty" form:"search_area"`
	SimThreshold *float64 `json:"sim_threshold,omitempty" form:"sim_threshold"`
	TopK         int      `json:"top_k,omitempty" form:"top_k"`
}

// SearchResult is a profile flattened together with its similarity score.
type SearchResult struct {
	Profile
	Similarity float64 `json:"similarity"`
}

type LoadSummary struct {
	Source   string `json:"source"`
	Total    int    `json:"total"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}
