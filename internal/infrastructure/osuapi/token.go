package osuapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/errs"
)

// refreshMargin is how long before the recorded expiry a cached token is
// already treated as stale.
const refreshMargin = 5 * time.Minute

// TokenSource exchanges client credentials for a bearer token and caches it.
// Concurrent callers that find the cached token stale share a single upstream
// exchange. Invalidate drops the cached token after an observed 401 so the
// next call forces a fresh exchange.
type TokenSource struct {
	conf       *clientcredentials.Config
	httpClient *http.Client
	group      singleflight.Group

	mu    sync.Mutex
	token *oauth2.Token
}

func NewTokenSource(clientID int, clientSecret, tokenURL string, httpClient *http.Client) *TokenSource {
	return &TokenSource{
		conf: &clientcredentials.Config{
			ClientID:     strconv.Itoa(clientID),
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
	}
}

// Token returns a valid access token, exchanging credentials upstream only
// when the cached one is missing or within refreshMargin of expiry.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	cached := s.token
	s.mu.Unlock()

	if cached != nil && time.Until(cached.Expiry) > refreshMargin {
		return cached.AccessToken, nil
	}

	result, err, shared := s.group.Do("token", func() (any, error) {
		exchangeCtx := ctx
		if s.httpClient != nil {
			exchangeCtx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
		}
		token, err := s.conf.Token(exchangeCtx)
		if err != nil {
			return nil, errs.Wrap(err, "exchange client credentials")
		}
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	token := result.(*oauth2.Token)
	if shared {
		logging.Debug(ctx, "token exchange shared with concurrent caller")
	} else {
		logging.Info(ctx, "exchanged osu api token",
			slog.String("expires_at", token.Expiry.Format(time.RFC3339)))
	}
	return token.AccessToken, nil
}

// Invalidate drops the cached token. Callers do this after the API rejects
// the token with 401 despite an unexpired expiry.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
}
