package api

import (
	"context"
	"strings"
	"time"

	"ecourts-casestatus/internal/casestatus"
	"ecourts-casestatus/internal/ecourts"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// labelCache resolves the codes of a search into the names shown on the dropdowns, names are
// what end up in the query log and in reports. A code that cannot be resolved is its own
// label.
type labelCache struct {
	upstream Upstream
	cache    *expirable.LRU[string, string]
}

func newLabelCache(upstream Upstream) *labelCache {
	return &labelCache{
		upstream: upstream,
		cache:    expirable.NewLRU[string, string](4096, nil, time.Hour),
	}
}

func labelKey(parts ...string) string {
	return strings.Join(parts, "|")
}

func (l *labelCache) purge() {
	l.cache.Purge()
}

// fill caches every option under `prefix` and returns the label of `code`.
func (l *labelCache) fill(prefix []string, options []ecourts.Option, code string) string {
	for _, opt := range options {
		l.cache.Add(labelKey(append(prefix, opt.Value)...), opt.Text)
	}
	return ecourts.OptionLabel(options, code)
}

func (l *labelCache) resolve(key []string, code string, load func() ([]ecourts.Option, error)) string {
	if code == "" {
		return ""
	}
	cached, hit := l.cache.Get(labelKey(append(key, code)...))
	if hit {
		return cached
	}
	options, err := load()
	if err != nil {
		return code
	}
	return l.fill(key, options, code)
}

func (l *labelCache) state(ctx context.Context, stateCode string) string {
	return l.resolve([]string{"state"}, stateCode, func() ([]ecourts.Option, error) {
		states, _ := l.upstream.States(ctx)
		return states, nil
	})
}

func (l *labelCache) district(ctx context.Context, stateCode, distCode string) string {
	return l.resolve([]string{"district", stateCode}, distCode, func() ([]ecourts.Option, error) {
		districts, _, err := l.upstream.Districts(ctx, stateCode)
		return districts, err
	})
}

func (l *labelCache) courtComplex(ctx context.Context, stateCode, distCode, complexCode string) string {
	return l.resolve([]string{"complex", stateCode, distCode}, complexCode, func() ([]ecourts.Option, error) {
		complexes, _, err := l.upstream.CourtComplexes(ctx, stateCode, distCode)
		return complexes, err
	})
}

func (l *labelCache) caseType(ctx context.Context, search casestatus.SearchContext) string {
	key := []string{"case_type", search.StateCode, search.DistCode, search.CourtComplexCode, search.EstCode}
	return l.resolve(key, search.CaseType, func() ([]ecourts.Option, error) {
		caseTypes, _, err := l.upstream.CaseTypes(ctx, ecourts.CaseTypesRequest{
			StateCode:        search.StateCode,
			DistCode:         search.DistCode,
			CourtComplexCode: search.CourtComplexCode,
			EstCode:          search.EstCode,
		})
		return caseTypes, err
	})
}

// Labels overrides what the resolved labels would be.
type Labels struct {
	State        string `json:"state_label,omitempty"`
	District     string `json:"district_label,omitempty"`
	CourtComplex string `json:"court_complex_label,omitempty"`
	CaseType     string `json:"case_type_label,omitempty"`
}

// criteria builds the report criteria of a search, labels given by the caller win over the
// ones looked up from the upstream.
func (l *labelCache) criteria(ctx context.Context, search casestatus.SearchContext, given Labels) casestatus.SearchCriteria {
	criteria := casestatus.SearchCriteria{
		CaseNumber:       search.CaseNo,
		RegistrationYear: search.RgYear,
	}
	criteria.StateLabel = given.State
	if criteria.StateLabel == "" {
		criteria.StateLabel = l.state(ctx, search.StateCode)
	}
	criteria.DistrictLabel = given.District
	if criteria.DistrictLabel == "" {
		criteria.DistrictLabel = l.district(ctx, search.StateCode, search.DistCode)
	}
	criteria.CourtComplexLabel = given.CourtComplex
	if criteria.CourtComplexLabel == "" {
		criteria.CourtComplexLabel = l.courtComplex(ctx, search.StateCode, search.DistCode, search.CourtComplexCode)
	}
	criteria.CaseTypeLabel = given.CaseType
	if criteria.CaseTypeLabel == "" {
		criteria.CaseTypeLabel = l.caseType(ctx, search)
	}
	return criteria
}
