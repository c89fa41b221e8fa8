// File: internal/services/models/resolver.go
package models

import (
	"errors"

	"github.com/iyunix/go-relay/internal/domain"
)

// DefaultSearchModel is the model used when a turn asks for web search.
const DefaultSearchModel = "perplexity/sonar"

var ErrNoModelsAvailable = errors.New("no models available")

// Resolution explains which model a turn will use.
type Resolution struct {
	ModelID string
	Reason  string
	// Ambiguous is set when more than one entry shares the requested
	// display name; the first match wins.
	Ambiguous bool
}

// Resolution reasons.
const (
	ReasonWebSearch         = "web_search"
	ReasonWebSearchFallback = "web_search_fallback"
	ReasonRequested         = "requested"
	ReasonFallback          = "fallback"
	ReasonDefault           = "default"
)

// Resolver maps a display name and the web-search flag onto a model id.
type Resolver struct {
	SearchModel string
	// FallbackModel is returned when the directory is empty. Left empty,
	// an empty directory is an error.
	FallbackModel string
}

func NewResolver(searchModel, fallbackModel string) *Resolver {
	if searchModel == "" {
		searchModel = DefaultSearchModel
	}
	return &Resolver{SearchModel: searchModel, FallbackModel: fallbackModel}
}

// Resolve picks exactly one model id from directory. It has no side
// effects and never returns an empty id without an error.
func (r *Resolver) Resolve(directory []domain.ModelInfo, requestedName string, webSearch bool) (Resolution, error) {
	if len(directory) == 0 {
		if r.FallbackModel != "" {
			return Resolution{ModelID: r.FallbackModel, Reason: ReasonDefault}, nil
		}
		return Resolution{}, ErrNoModelsAvailable
	}

	if webSearch {
		for _, m := range directory {
			if m.ID == r.SearchModel {
				return Resolution{ModelID: m.ID, Reason: ReasonWebSearch}, nil
			}
		}
		return Resolution{ModelID: directory[0].ID, Reason: ReasonWebSearchFallback}, nil
	}

	if requestedName != "" {
		var match *domain.ModelInfo
		ambiguous := false
		for i := range directory {
			if directory[i].Name != requestedName {
				continue
			}
			if match == nil {
				match = &directory[i]
			} else {
				ambiguous = true
				break
			}
		}
		if match != nil {
			return Resolution{ModelID: match.ID, Reason: ReasonRequested, Ambiguous: ambiguous}, nil
		}
	}

	return Resolution{ModelID: directory[0].ID, Reason: ReasonFallback}, nil
}
