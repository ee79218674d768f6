// Package backend is the typed HTTP client for the authoritative VoteGuard
// REST API. The gateway never decides credentials, OTP validity, or vote
// uniqueness itself; this client carries those questions to the collaborator
// and classifies its answers (see errors.go).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the VoteGuard backend REST API.
type Client struct {
	baseURL     string
	http        *http.Client
	tokenSource func() string
}

// New returns a Client for the API rooted at baseURL (e.g.
// http://localhost:8080/api). timeout bounds every request.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetTokenSource registers the provider of the terminal's bearer token,
// typically the session store. While the source returns a non-empty token,
// every request carries it as an Authorization header; the collaborator
// rejects authenticated endpoints without one.
func (c *Client) SetTokenSource(source func() string) {
	c.tokenSource = source
}

// AdminSession is the result of an admin login (biometric or fallback).
type AdminSession struct {
	Token     string
	SessionID string
	AdminID   string
	Username  string
	Role      string
	ExpiresAt string // wire format passed through; parsed defensively upstream
}

// VoterSession is the result of a voter login. The token is a JWT whose claims
// carry the subject, role, and expiry.
type VoterSession struct {
	Token string
	Role  string
}

// OTPGrant is a freshly generated center-activation OTP.
type OTPGrant struct {
	OTP       string
	ExpiresAt string // wire format passed through; parsed defensively upstream
}

// Candidate is one ballot entry.
type Candidate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	Description string `json:"description,omitempty"`
}

// Election is one election a voter is eligible for.
type Election struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ElectionCode string `json:"electionCode"`
	Status       string `json:"status"`
}

// AdminLogin authenticates an admin with a fingerprint sample (multipart).
func (c *Client) AdminLogin(ctx context.Context, adminID string, fingerprint []byte) (*AdminSession, error) {
	body, contentType, err := multipartForm(map[string]string{"adminId": adminID}, "fingerprint", fingerprint)
	if err != nil {
		return nil, err
	}
	return c.adminLogin(ctx, "/admin/login", contentType, body)
}

// AdminLoginFallback authenticates an admin with a fallback code (JSON).
func (c *Client) AdminLoginFallback(ctx context.Context, adminID, fallbackCode string) (*AdminSession, error) {
	body, err := jsonBody(map[string]string{"adminId": adminID, "fallbackCode": fallbackCode})
	if err != nil {
		return nil, err
	}
	return c.adminLogin(ctx, "/admin/login/fallback", "application/json", body)
}

func (c *Client) adminLogin(ctx context.Context, path, contentType string, body io.Reader) (*AdminSession, error) {
	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		Token     string `json:"token"`
		SessionID string `json:"sessionId"`
		ExpiresAt string `json:"expiresAt"`
		Admin     struct {
			AdminID  string `json:"adminId"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"admin"`
	}
	if err := c.do(ctx, http.MethodPost, path, contentType, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{Kind: KindServer, Message: orDefault(resp.Message, "login rejected")}
	}
	return &AdminSession{
		Token:     resp.Token,
		SessionID: resp.SessionID,
		AdminID:   resp.Admin.AdminID,
		Username:  resp.Admin.Username,
		Role:      resp.Admin.Role,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// AdminLogout invalidates the server-side admin session. Best-effort at the
// call sites: the local session is cleared regardless of the outcome.
func (c *Client) AdminLogout(ctx context.Context, sessionID string) error {
	body, err := jsonBody(map[string]string{"sessionId": sessionID})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/admin/logout", "application/json", body, nil)
}

// RefreshAdminSession requests a new expiry for sessionID. Returns the new
// expiresAt wire string.
func (c *Client) RefreshAdminSession(ctx context.Context, sessionID string) (string, error) {
	body, err := jsonBody(map[string]string{"sessionId": sessionID})
	if err != nil {
		return "", err
	}
	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/session/refresh", "application/json", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &Error{Kind: KindExpiry, Message: orDefault(resp.Message, "session refresh rejected")}
	}
	return resp.ExpiresAt, nil
}

// VoterLogin authenticates a voter with a fingerprint sample, optionally
// scoped to an election code.
func (c *Client) VoterLogin(ctx context.Context, voterID, extraField string, fingerprint []byte, electionCode string) (*VoterSession, error) {
	fields := map[string]string{"voterId": voterID, "extraField": extraField}
	if electionCode != "" {
		fields["electionCode"] = electionCode
	}
	body, contentType, err := multipartForm(fields, "fingerprint", fingerprint)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Token string `json:"token"`
		Error string `json:"error"`
		Voter struct {
			Role string `json:"role"`
		} `json:"voter"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", contentType, body, &resp); err != nil {
		var be *Error
		if errors.As(err, &be) && be.Kind == KindServer {
			return nil, classifyLoginMessage(be.Status, be.Message)
		}
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Kind: KindServer, Message: orDefault(resp.Error, "login rejected")}
	}
	return &VoterSession{Token: resp.Token, Role: resp.Voter.Role}, nil
}

// GenerateOTP requests a fresh activation OTP for the election.
func (c *Client) GenerateOTP(ctx context.Context, electionID string) (*OTPGrant, error) {
	var resp struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		OTP       string `json:"otp"`
		ExpiresAt string `json:"expiresAt"`
	}
	path := fmt.Sprintf("/elections/%s/generate-otp", url.PathEscape(electionID))
	if err := c.do(ctx, http.MethodPost, path, "application/json", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &Error{Kind: KindServer, Message: orDefault(resp.Message, "OTP generation rejected")}
	}
	return &OTPGrant{OTP: resp.OTP, ExpiresAt: resp.ExpiresAt}, nil
}

// SetupCenter submits (electionCode, otp, location) and returns the election
// code confirmed by the collaborator. Rejection reasons come back verbatim.
func (c *Client) SetupCenter(ctx context.Context, electionCode, otp, location string) (string, error) {
	body, err := jsonBody(map[string]string{
		"electionCode":   electionCode,
		"otp":            otp,
		"centerLocation": location,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		ElectionCode string `json:"electionCode"`
	}
	if err := c.do(ctx, http.MethodPost, "/elections/setup-center", "application/json", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", &Error{Kind: KindServer, Message: orDefault(resp.Message, "center setup rejected")}
	}
	return resp.ElectionCode, nil
}

// Candidates lists ballot candidates for the election.
func (c *Client) Candidates(ctx context.Context, electionID string) ([]Candidate, error) {
	var out []Candidate
	path := "/vote/candidates"
	if electionID != "" {
		path += "?electionId=" + url.QueryEscape(electionID)
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CastVote records one vote (multipart). The collaborator enforces the
// one-vote-per-election invariant; an already-voted rejection comes back as a
// protocol error.
func (c *Client) CastVote(ctx context.Context, candidateID, voterID, electionID string) error {
	body, contentType, err := multipartForm(map[string]string{
		"candidateId": candidateID,
		"voterId":     voterID,
		"electionId":  electionID,
	}, "", nil)
	if err != nil {
		return err
	}
	err = c.do(ctx, http.MethodPost, "/vote/cast", contentType, body, nil)
	var be *Error
	if errors.As(err, &be) && be.Kind == KindServer && IsAlreadyVoted(err) {
		return &Error{Kind: KindProtocol, Status: be.Status, Message: be.Message}
	}
	return err
}

// EligibleElections lists the elections the voter may vote in.
func (c *Client) EligibleElections(ctx context.Context, voterID string) ([]Election, error) {
	var resp struct {
		Elections []Election `json:"elections"`
	}
	path := fmt.Sprintf("/elections/voter/%s/eligible", url.PathEscape(voterID))
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Elections, nil
}

// HasVoted returns the authoritative voted flag for the voter.
func (c *Client) HasVoted(ctx context.Context, voterID string) (bool, error) {
	var resp struct {
		HasVoted bool `json:"hasVoted"`
	}
	path := fmt.Sprintf("/vote/status/%s", url.PathEscape(voterID))
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return false, err
	}
	return resp.HasVoted, nil
}

// do performs one request and decodes a JSON response into out (if non-nil).
// Non-2xx responses become classified *Error values; transport failures become
// KindNetwork.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "unable to reach the election server"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "unable to read the election server response"}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &Error{Kind: KindAuth, Status: resp.StatusCode, Message: serverMessage(raw)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response from the election server"}
	}
	return nil
}

// serverMessage extracts "message" or "error" from a JSON error body, so the
// rejection reason can be surfaced verbatim.
func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func jsonBody(v interface{}) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// multipartForm builds a multipart body with string fields and one optional
// file part. Returns the body and its content type.
func multipartForm(fields map[string]string, fileField string, file []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, fileField+".dat")
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
