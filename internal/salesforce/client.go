// Package salesforce wraps the simpleforce client with configuration
// validation and a bounded HTTP timeout. The rest of the code talks to the
// CRM through the narrow interfaces in repository and storage; this package
// only owns session setup.
package salesforce

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/simpleforce/simpleforce"

	"github.com/FOX2920/sf-api/internal/config"
)

// ErrMissingCredentials means the CRM credential set is incomplete. The
// process should fail fast at startup rather than serve requests that can
// only error later.
var ErrMissingCredentials = errors.New("incomplete salesforce credentials")

// Client is an authenticated CRM session.
type Client struct {
	sf *simpleforce.Client
}

// New validates the credential set, opens a session and authenticates.
func New(cfg config.SalesforceConfig) (*Client, error) {
	// The password flow itself only consumes the consumer key, but the
	// credential set is provisioned as five values and a partial set means a
	// misconfigured deployment, so all five are required.
	if cfg.Username == "" || cfg.Password == "" || cfg.SecurityToken == "" ||
		cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, ErrMissingCredentials
	}

	loginURL := cfg.LoginURL
	if loginURL == "" {
		loginURL = simpleforce.DefaultURL
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = simpleforce.DefaultAPIVersion
	}

	sf := simpleforce.NewClient(loginURL, cfg.ConsumerKey, apiVersion)
	if sf == nil {
		return nil, errors.New("create salesforce client")
	}

	timeout := time.Duration(cfg.UploadTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	sf.SetHttpClient(&http.Client{Timeout: timeout})

	if err := sf.LoginPassword(cfg.Username, cfg.Password, cfg.SecurityToken); err != nil {
		return nil, fmt.Errorf("salesforce login: %w", err)
	}
	return &Client{sf: sf}, nil
}

// Query runs a SOQL query.
func (c *Client) Query(soql string) (*simpleforce.QueryResult, error) {
	return c.sf.Query(soql)
}

// SObject starts a builder for the given object type.
func (c *Client) SObject(objectType string) *simpleforce.SObject {
	return c.sf.SObject(objectType)
}

// Describe fetches the object metadata, including picklist option sets.
func (c *Client) Describe(objectType string) *simpleforce.SObjectMeta {
	return c.sf.SObject(objectType).Describe()
}

// CreateRecord inserts a record and returns its id. The underlying client
// reports failure by returning nil, so the error here carries no CRM detail.
func (c *Client) CreateRecord(objectType string, fields map[string]interface{}) (string, error) {
	obj := c.sf.SObject(objectType)
	for k, v := range fields {
		obj.Set(k, v)
	}
	created := obj.Create()
	if created == nil {
		return "", fmt.Errorf("create %s record", objectType)
	}
	return created.ID(), nil
}
