package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/oauthconfig"
	"github.com/aistone/edge-backend/internal/core/ports"
)

var defaultScopes = []string{"openid", "email", "profile"}

// Friendly messages for the token endpoint errors users actually hit.
var exchangeMessages = map[string]string{
	"invalid_grant":         "authorization code is invalid or expired, please sign in again",
	"redirect_uri_mismatch": "redirect URI does not match the one registered with Google",
	"invalid_client":        "google client credentials are invalid",
}

const defaultExchangeMessage = "google authorization failed"

// CodeExchanger redeems authorization codes and loads the account profile.
type CodeExchanger struct {
	endpoint         oauth2.Endpoint
	userInfoEndpoint string
	httpClient       *http.Client
}

type ExchangerOption func(*CodeExchanger)

// WithEndpoints points the exchanger at alternative token and userinfo hosts.
func WithEndpoints(tokenURL, userInfoURL string) ExchangerOption {
	return func(e *CodeExchanger) {
		e.endpoint = oauth2.Endpoint{
			AuthURL:   googleoauth.Endpoint.AuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		}
		e.userInfoEndpoint = userInfoURL
	}
}

func WithHTTPClient(c *http.Client) ExchangerOption {
	return func(e *CodeExchanger) { e.httpClient = c }
}

func NewCodeExchanger(opts ...ExchangerOption) *CodeExchanger {
	e := &CodeExchanger{endpoint: googleoauth.Endpoint}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exchange trades code for tokens with the resolved client configuration and
// returns the profile reported by the userinfo endpoint.
func (e *CodeExchanger) Exchange(ctx context.Context, cfg oauthconfig.Google, code string) (*ports.GoogleIdentity, error) {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     e.endpoint,
		Scopes:       defaultScopes,
	}
	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, exchangeError(re)
		}
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(conf.Client(ctx, tok))}
	if e.userInfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(e.userInfoEndpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}

	return &ports.GoogleIdentity{
		ID:            info.Id,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail != nil && *info.VerifiedEmail,
		Name:          info.Name,
		Picture:       info.Picture,
		Locale:        info.Locale,
	}, nil
}

func exchangeError(re *oauth2.RetrieveError) *domain.OAuthError {
	msg, ok := exchangeMessages[re.ErrorCode]
	if !ok {
		msg = defaultExchangeMessage
	}
	code := re.ErrorCode
	if code == "" {
		code = "exchange_failed"
	}
	return &domain.OAuthError{Code: code, Description: re.ErrorDescription, Message: msg}
}
