// Package documents loads a student's document records from the backend and
// normalizes them into a models.DocumentStatus.
package documents

import (
	"context"
	"errors"
	"fmt"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/metrics"
	"gradabroad-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// ErrDocumentsUnavailable means every category failed. Callers treat the
// document status as absent and match nothing.
var ErrDocumentsUnavailable = errors.New("document status unavailable")

// Category is one of the five backend document sources.
type Category struct {
	Name string
	Path string
}

var (
	CategoryPersonal            = Category{Name: "personal", Path: "/api/personal-documents/"}
	CategoryEducation           = Category{Name: "education", Path: "/api/educations/"}
	CategoryLanguageCertificate = Category{Name: "language_certificates", Path: "/api/certificates/language/"}
	CategoryImportantCert       = Category{Name: "important_certificates", Path: "/api/certificates/important/"}
	CategoryFinancial           = Category{Name: "financial", Path: "/api/financial-documents/"}
)

// Categories lists the sources in the order they are merged.
var Categories = []Category{
	CategoryPersonal,
	CategoryEducation,
	CategoryLanguageCertificate,
	CategoryImportantCert,
	CategoryFinancial,
}

// JSONGetter is the part of the backend client the accessor needs.
type JSONGetter interface {
	GetJSON(ctx context.Context, token, path string, out interface{}) error
}

// Result is a fetched document status together with what went wrong.
type Result struct {
	Status           *models.DocumentStatus
	FailedCategories []string
	FromCache        bool
}

// Accessor fetches the five document categories concurrently.
type Accessor struct {
	client JSONGetter
	cache  *Cache
	logger logger.Logger
}

type Option func(*Accessor)

// WithCache enables the redis document cache.
func WithCache(c *Cache) Option {
	return func(a *Accessor) { a.cache = c }
}

func NewAccessor(client JSONGetter, log logger.Logger, opts ...Option) *Accessor {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	a := &Accessor{client: client, logger: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchDocumentStatus returns the merged document status. A failed category
// comes back empty; only a total failure is an error.
func (a *Accessor) FetchDocumentStatus(ctx context.Context, token string) (*models.DocumentStatus, error) {
	res, err := a.Fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	return res.Status, nil
}

// Fetch is FetchDocumentStatus with per-category failure details.
func (a *Accessor) Fetch(ctx context.Context, token string) (*Result, error) {
	token = auth.StripBearer(token)
	if token == "" {
		return nil, auth.ErrTokenMissing
	}

	if status, ok := a.cache.Get(ctx, token); ok {
		return &Result{Status: status, FromCache: true}, nil
	}

	lists := make([]models.DocumentList, len(Categories))
	errs := make([]error, len(Categories))

	var g errgroup.Group
	for i, cat := range Categories {
		i, cat := i, cat
		g.Go(func() error {
			var list models.DocumentList
			if err := a.client.GetJSON(ctx, token, cat.Path, &list); err != nil {
				errs[i] = fmt.Errorf("%s: %w", cat.Name, err)
				lists[i] = models.DocumentList{}
				return nil
			}
			if list == nil {
				list = models.DocumentList{}
			}
			lists[i] = list
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, Categories[i].Name)
		metrics.DocumentFetchFailures.WithLabelValues(Categories[i].Name).Inc()
		a.logger.Warn("document category fetch failed, treating as empty", map[string]interface{}{
			"category": Categories[i].Name,
			"error":    err.Error(),
		})
	}

	if len(failed) == len(Categories) {
		return nil, fmt.Errorf("%w: %v", ErrDocumentsUnavailable, errors.Join(errs...))
	}

	certificates := make(models.DocumentList, 0, len(lists[2])+len(lists[3]))
	certificates = append(certificates, lists[2]...)
	certificates = append(certificates, lists[3]...)

	status := &models.DocumentStatus{
		Personal:     lists[0],
		Education:    lists[1],
		Certificates: certificates,
		Financial:    lists[4],
	}

	if len(failed) == 0 {
		a.cache.Set(ctx, token, status)
	}

	a.logger.Debug("document status fetched", map[string]interface{}{
		"documents":        status.Count(),
		"failedCategories": failed,
	})
	return &Result{Status: status, FailedCategories: failed}, nil
}

// Invalidate forgets any cached status for token so the next fetch goes to
// the backend.
func (a *Accessor) Invalidate(ctx context.Context, token string) {
	a.cache.Invalidate(ctx, auth.StripBearer(token))
}
