// internal/models/document.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a normalized student document record. Only a subset of the
// descriptive fields is populated, depending on the source category.
type Document struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	DocType  string `json:"doc_type,omitempty"`
	Label    string `json:"label,omitempty"`
	Category string `json:"category,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Keys returns the descriptive fields that may identify the document.
func (d Document) Keys() []string {
	return []string{d.Name, d.Title, d.DocType, d.Label, d.Category, d.FileName}
}

// DocumentList is an ordered sequence of documents. It accepts either a bare
// JSON array or an object wrapping the array under "results".
type DocumentList []Document

func (l *DocumentList) UnmarshalJSON(data []byte) error {
	items, err := unmarshalListOrResults[Document](data)
	if err != nil {
		return fmt.Errorf("document list: %w", err)
	}
	*l = items
	return nil
}

func (l DocumentList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Document(l))
}

// DocumentStatus groups the student's documents by source category.
// Language and important certificates are merged into Certificates.
type DocumentStatus struct {
	Personal     DocumentList `json:"personal"`
	Education    DocumentList `json:"education"`
	Certificates DocumentList `json:"certificates"`
	Financial    DocumentList `json:"financial"`
}

// All flattens the four categories in a stable order.
func (s *DocumentStatus) All() []Document {
	if s == nil {
		return nil
	}
	out := make([]Document, 0, len(s.Personal)+len(s.Education)+len(s.Certificates)+len(s.Financial))
	out = append(out, s.Personal...)
	out = append(out, s.Education...)
	out = append(out, s.Certificates...)
	out = append(out, s.Financial...)
	return out
}

// Count returns the number of documents across all categories.
func (s *DocumentStatus) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Personal) + len(s.Education) + len(s.Certificates) + len(s.Financial)
}

// unmarshalListOrResults decodes `[...]`, `{"results": [...]}` or null into a
// non-nil slice.
func unmarshalListOrResults[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	case '{':
		var wrapped struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		if wrapped.Results == nil {
			return []T{}, nil
		}
		return wrapped.Results, nil
	default:
		return nil, fmt.Errorf("expected array or object, got %q", trimmed[0])
	}
}
