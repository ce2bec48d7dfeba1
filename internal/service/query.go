package service

import (
	"slices"
	"strings"
	"time"

	"docfiling/internal/apperr"
	"docfiling/internal/model"
	"docfiling/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	searchDateForm  = "2006-01-02"
)

// SearchParams are the raw search inputs. Zero values select the defaults.
type SearchParams struct {
	Search         string
	Status         string
	DepartmentID   string
	DocumentTypeID string
	SortBy         string
	Order          string
	Page           int
	Limit          int
}

// DocumentPage is one page of search results.
type DocumentPage struct {
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
	Pages     int              `json:"pages"`
	HasNext   bool             `json:"has_next"`
	HasPrev   bool             `json:"has_prev"`
	Documents []model.Document `json:"documents"`
}

// ParseQuery validates p and converts it into a repository query.
func ParseQuery(p SearchParams) (repository.DocumentQuery, error) {
	q := repository.DocumentQuery{
		Search:         strings.TrimSpace(p.Search),
		DepartmentID:   strings.TrimSpace(p.DepartmentID),
		DocumentTypeID: strings.TrimSpace(p.DocumentTypeID),
		SortField:      repository.SortCreatedDate,
		SortDesc:       true,
	}

	page, limit := p.Page, p.Limit
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return q, apperr.New(apperr.KindInvalidInput, "page must be at least 1")
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxPageSize {
		return q, apperr.Newf(apperr.KindInvalidInput, "limit must be between 1 and %d", MaxPageSize)
	}
	q.Page = repository.PageQuery{Limit: limit, Offset: (page - 1) * limit}

	if p.SortBy != "" {
		if !slices.Contains(repository.SortFields, p.SortBy) {
			return q, apperr.Newf(apperr.KindInvalidInput, "invalid sort field %q", p.SortBy)
		}
		q.SortField = p.SortBy
	}
	switch strings.ToLower(p.Order) {
	case "", "desc", "-1":
		q.SortDesc = true
	case "asc", "1":
		q.SortDesc = false
	default:
		return q, apperr.Newf(apperr.KindInvalidInput, "invalid sort order %q", p.Order)
	}

	if p.Status != "" {
		s := model.Status(p.Status)
		if !s.Valid() {
			return q, apperr.Newf(apperr.KindInvalidInput, "invalid status %q", p.Status)
		}
		q.Status = &s
	}

	if q.Search != "" {
		if d, err := time.Parse(searchDateForm, q.Search); err == nil {
			q.SearchDate = &d
		}
	}
	return q, nil
}

// newPage computes the paging summary for a result.
func newPage(res *repository.PageResult[model.Document], q repository.DocumentQuery) *DocumentPage {
	limit := q.Page.Limit
	page := q.Page.Offset/limit + 1
	pages := (res.Total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return &DocumentPage{
		Total:     res.Total,
		Page:      page,
		Limit:     limit,
		Pages:     pages,
		HasNext:   page < pages,
		HasPrev:   page > 1,
		Documents: res.Items,
	}
}
