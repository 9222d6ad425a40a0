package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Shared client so every outbound devmaster call is bounded by a timeout.
var httpClient = &http.Client{Timeout: 15 * time.Second}

// DevmasterService is a thin client for the devmaster ERP API, which
// holds the reseller directory and the product catalog.
type DevmasterService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewDevmasterService constructs a DevmasterService.
func NewDevmasterService(baseURL, apiKey string) *DevmasterService {
	return &DevmasterService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
	}
}

// ResellerProfile is the subset of the external reseller record the
// application cares about.
type ResellerProfile struct {
	ID   int
	Name string
}

// DevmasterResponse bundles the HTTP response metadata of a relayed call.
type DevmasterResponse struct {
	Status int
	Body   []byte
	Header http.Header
}

type resellerRecord struct {
	ID           any    `json:"id"`
	Nome         string `json:"nome"`
	NomeFantasia string `json:"nome_fantasia"`
}

// FetchResellerByEmail looks up a reseller in the external directory.
// Returns (nil, nil) when no reseller matches the email.
func (s *DevmasterService) FetchResellerByEmail(email string) (*ResellerProfile, error) {
	if s.apiKey == "" {
		return nil, errors.New("variável de ambiente DEVMASTER_API_KEY não configurada")
	}

	endpoint := fmt.Sprintf("%s/appsorelly/revendedoras/email=%s", s.baseURL, url.QueryEscape(email))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create devmaster request: %w", err)
	}
	req.Header.Set("Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute devmaster request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("falha ao consultar a API externa (%d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read devmaster response: %w", err)
	}

	var records []resellerRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("unmarshal devmaster response: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	record := records[0]
	id, ok := parseResellerID(record.ID)
	if !ok {
		return nil, errors.New("a API externa retornou um ID inválido para a revendedora")
	}

	name := strings.TrimSpace(record.NomeFantasia)
	if name == "" {
		name = strings.TrimSpace(record.Nome)
	}

	return &ResellerProfile{ID: id, Name: name}, nil
}

// Get relays an authenticated GET to the devmaster API and returns the
// raw response for proxying.
func (s *DevmasterService) Get(path string, query map[string]string) (*DevmasterResponse, error) {
	endpoint := s.baseURL + "/" + strings.TrimLeft(path, "/")

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse devmaster URL: %w", err)
	}

	if len(query) > 0 {
		values := u.Query()
		for k, v := range query {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create devmaster request: %w", err)
	}
	req.Header.Set("Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute devmaster request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read devmaster response: %w", err)
	}

	return &DevmasterResponse{
		Status: resp.StatusCode,
		Body:   body,
		Header: resp.Header.Clone(),
	}, nil
}

func parseResellerID(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
