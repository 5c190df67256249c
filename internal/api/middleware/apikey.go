package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/response"
)

// TimeTokenTTL is how long a generated time token stays valid.
const TimeTokenTTL = 5 * time.Minute

const (
	apiKeyHeader    = "X-API-Key"
	timeTokenHeader = "X-Time-Token"
)

// APIKey returns a middleware guarding maintenance endpoints. A request must
// carry the key in X-API-Key and a fresh fernet token derived from the same
// key in X-Time-Token. An empty apiKey rejects every request.
func APIKey(apiKey string) func(http.Handler) http.Handler {
	key := timeTokenKey(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				response.RespondError(w, http.StatusInternalServerError, "unauthorized", "Authentication not loaded")
				return
			}

			provided := r.Header.Get(apiKeyHeader)
			if provided == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			token := r.Header.Get(timeTokenHeader)
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
				return
			}
			if fernet.VerifyAndDecrypt([]byte(token), TimeTokenTTL, []*fernet.Key{key}) == nil {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GenerateTimeToken creates a time token accepted by APIKey for the next TimeTokenTTL.
func GenerateTimeToken(apiKey string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(time.Now().UTC().Format(time.RFC3339)), timeTokenKey(apiKey))
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

func timeTokenKey(apiKey string) *fernet.Key {
	k := fernet.Key(sha256.Sum256([]byte(apiKey)))
	return &k
}
