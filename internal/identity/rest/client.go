package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/pkg/id"
	"go.uber.org/zap"
)

var _ identity.Provider = (*Client)(nil)

// Client talks to the identity provider's admin API. One Client is built at
// startup with the service credential and shared process-wide; components
// receive it by injection so tests can substitute a fake.
type Client struct {
	baseURL     string
	apiKey      string
	callTimeout time.Duration
	http        *http.Client
	logger      *zap.Logger
}

// New builds the provider client. callTimeout bounds every provider call on
// top of the inbound request context; transport faults and timeouts surface
// as provider-unavailable.
func New(baseURL, apiKey string, callTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		callTimeout: callTimeout,
		http:        &http.Client{},
		logger:      logger,
	}
}

type identityBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) CreateIdentity(ctx context.Context, email, password string, identityID id.IdentityID) (*identity.Record, error) {
	req := map[string]string{
		"id":       identityID.String(),
		"email":    email,
		"password": password,
	}
	var resp identityBody
	if err := c.call(ctx, http.MethodPost, "/v1/identities", req, &resp); err != nil {
		return nil, err
	}
	return &identity.Record{ID: id.IdentityID(resp.ID), Email: resp.Email}, nil
}

func (c *Client) VerifyToken(ctx context.Context, token string) (*identity.Token, error) {
	req := map[string]string{"token": token}
	var resp struct {
		SubjectID string         `json:"subject_id"`
		Claims    map[string]any `json:"claims"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/token/verify", req, &resp); err != nil {
		return nil, err
	}
	return &identity.Token{SubjectID: id.IdentityID(resp.SubjectID), Claims: resp.Claims}, nil
}

func (c *Client) GetIdentity(ctx context.Context, identityID id.IdentityID) (*identity.Record, error) {
	var resp identityBody
	path := "/v1/identities/" + identityID.String()
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &identity.Record{ID: id.IdentityID(resp.ID), Email: resp.Email}, nil
}

func (c *Client) GetClaims(ctx context.Context, identityID id.IdentityID) (map[string]any, error) {
	var resp struct {
		Claims map[string]any `json:"claims"`
	}
	path := "/v1/identities/" + identityID.String() + "/claims"
	err := c.call(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		var perr *identity.ProviderError
		// absent claims are not an error for callers
		if errors.As(err, &perr) && perr.Code == identity.CodeIdentityNotFound {
			return nil, nil
		}
		return nil, err
	}
	return resp.Claims, nil
}

func (c *Client) SetClaims(ctx context.Context, identityID id.IdentityID, claims map[string]any) error {
	req := map[string]any{"claims": claims}
	path := "/v1/identities/" + identityID.String() + "/claims"
	return c.call(ctx, http.MethodPut, path, req, nil)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return identity.NewProviderError(identity.CodeUnavailable, err.Error())
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return identity.NewProviderError(identity.CodeUnavailable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("provider call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return identity.NewProviderError(identity.CodeUnavailable, "identity provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var ebody errorBody
		if err := json.NewDecoder(resp.Body).Decode(&ebody); err != nil || ebody.Code == "" {
			// unstructured failure, keep only the status
			return identity.NewProviderError(identity.CodeUnavailable,
				fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
		}
		return identity.NewProviderError(identity.Code(ebody.Code), ebody.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return identity.NewProviderError(identity.CodeUnavailable, "malformed provider response")
	}
	return nil
}
