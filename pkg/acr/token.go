package acr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/azctl/azctl/pkg/errors"
)

// NullUsername is the user name paired with an ACR refresh token.
const NullUsername = "00000000-0000-0000-0000-000000000000"

type exchangeResponse struct {
	RefreshToken string `json:"refresh_token"`
}

// ExchangeToken trades an Entra ID access token for an ACR refresh token through the
// registry's /oauth2/exchange endpoint. registryURL is the scheme and host of the
// registry, such as https://myregistry.azurecr.io.
func ExchangeToken(ctx context.Context, client *http.Client, registryURL, tenant, aadToken string) (string, error) {
	u, err := url.Parse(registryURL)
	if err != nil || u.Host == "" {
		return "", errors.Newf(errors.ErrCodeInvalidArgumentValue, "invalid registry URL %q", registryURL)
	}
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{
		"grant_type":   {"access_token"},
		"service":      {u.Host},
		"access_token": {aadToken},
	}
	if tenant != "" {
		form.Set("tenant", tenant)
	}

	endpoint := u.Scheme + "://" + u.Host + "/oauth2/exchange"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to build token exchange request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	slog.Debug("exchanging token", "registry", u.Host)
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to reach registry %s", u.Host), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.WrapWithContext(errors.CodeFromHTTPStatus(resp.StatusCode),
			fmt.Sprintf("failed to exchange the access token for registry %s", u.Host), nil,
			map[string]any{"status": resp.StatusCode})
	}

	var body exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(errors.ErrCodeAzureInternal, "failed to decode token exchange response", err)
	}
	if body.RefreshToken == "" {
		return "", errors.New(errors.ErrCodeAzureInternal, "token exchange response carries no refresh token")
	}
	return body.RefreshToken, nil
}
