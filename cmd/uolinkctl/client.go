package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

var httpClient *resty.Client

// apiClient builds the resty client lazily so flag parsing and help
// output never require a reachable server.
func apiClient() *resty.Client {
	if httpClient != nil {
		return httpClient
	}

	baseURL := os.Getenv("UOLINK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	httpClient = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "uolinkctl/1.0")

	if token := os.Getenv("UOLINK_TOKEN"); token != "" {
		httpClient.SetAuthToken(token)
	}

	return httpClient
}

// apiError is the JSON error envelope the server produces
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// checkResponse turns transport errors and non-2xx responses into a
// single error value with the server's message when one is present.
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}

	var envelope apiError
	if json.Unmarshal(resp.Body(), &envelope) == nil {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		if msg != "" {
			if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
				return fmt.Errorf("[%d] %s (is UOLINK_TOKEN set to a moderator token?)", resp.StatusCode(), msg)
			}
			return fmt.Errorf("[%d] %s", resp.StatusCode(), msg)
		}
	}
	return fmt.Errorf("[%d] %s", resp.StatusCode(), resp.Status())
}

// getJSON fetches path with query params and decodes the response
func getJSON(path string, params map[string]string, out interface{}) error {
	resp, err := apiClient().R().
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	return checkResponse(resp, err)
}

// postJSON sends body to path and decodes the response when out is
// non-nil
func postJSON(path string, body, out interface{}) error {
	req := apiClient().R()
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Post(path)
	return checkResponse(resp, err)
}
