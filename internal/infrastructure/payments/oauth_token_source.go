package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultOAuthTokenURL = "https://api.mercadopago.com/oauth/token"

// ClientCredentialsTokenSource obtains access tokens with the OAuth
// client_credentials grant. Credentials travel in the form body, which is
// what the Mercado Pago token endpoint accepts.
type ClientCredentialsTokenSource struct {
	httpClient *http.Client
	config     clientcredentials.Config
}

var _ TokenSource = (*ClientCredentialsTokenSource)(nil)

func NewClientCredentialsTokenSource(httpClient *http.Client, tokenURL, clientID, clientSecret string) *ClientCredentialsTokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if tokenURL == "" {
		tokenURL = defaultOAuthTokenURL
	}
	return &ClientCredentialsTokenSource{
		httpClient: httpClient,
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}
}

// Token performs one exchange. Caching and refresh belong to TokenCache.
func (s *ClientCredentialsTokenSource) Token(ctx context.Context) (AccessToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	tok, err := s.config.Token(ctx)
	if err != nil {
		return AccessToken{}, fmt.Errorf("oauth token request: %w", err)
	}
	if tok.AccessToken == "" {
		return AccessToken{}, ErrEmptyAccessToken
	}
	return AccessToken{Value: tok.AccessToken, ExpiresAt: tok.Expiry}, nil
}
