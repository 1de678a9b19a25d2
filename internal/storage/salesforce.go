package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/simpleforce/simpleforce"
)

// crmClient is the slice of the CRM client the content store needs.
type crmClient interface {
	Query(soql string) (*simpleforce.QueryResult, error)
	CreateRecord(objectType string, fields map[string]interface{}) (string, error)
}

// SalesforceContentStore stores documents as ContentVersion records and
// attaches them with ContentDocumentLink. Upload and Link are separate steps
// so a generation can report exactly which one failed.
type SalesforceContentStore struct {
	client crmClient
}

// NewSalesforceContentStore wires a content store over an authenticated client.
func NewSalesforceContentStore(client crmClient) *SalesforceContentStore {
	return &SalesforceContentStore{client: client}
}

// Upload creates a ContentVersion holding the document bytes and resolves the
// ContentDocumentId that links refer to.
func (s *SalesforceContentStore) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := filepath.Base(fileName)
	title := strings.TrimSuffix(base, filepath.Ext(base))

	versionID, err := s.client.CreateRecord("ContentVersion", map[string]interface{}{
		"Title":        title,
		"PathOnClient": base,
		"VersionData":  base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return "", fmt.Errorf("create content version: %w", err)
	}

	result, err := s.client.Query(fmt.Sprintf(
		`SELECT ContentDocumentId FROM ContentVersion WHERE Id = '%s'`, versionID))
	if err != nil {
		return "", fmt.Errorf("resolve content document: %w", err)
	}
	if len(result.Records) == 0 {
		return "", fmt.Errorf("resolve content document: version %s not found", versionID)
	}
	docID, _ := result.Records[0]["ContentDocumentId"].(string)
	if docID == "" {
		return "", fmt.Errorf("resolve content document: version %s has no document id", versionID)
	}
	return docID, nil
}

// Link attaches uploaded content to a record as a viewer-shared document.
func (s *SalesforceContentStore) Link(ctx context.Context, contentID, recordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.CreateRecord("ContentDocumentLink", map[string]interface{}{
		"ContentDocumentId": contentID,
		"LinkedEntityId":    recordID,
		"ShareType":         "V",
	})
	if err != nil {
		return fmt.Errorf("create content link: %w", err)
	}
	return nil
}
