package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"telenonym/internal/domain"
)

var (
	ErrMissingInitData = errors.New("missing init data")
	ErrInvalidInitData = errors.New("invalid init data")
	ErrStaleInitData   = errors.New("init data too old")
)

// Bridge validates Mini App init data against the bot token and extracts
// the user identity the host runtime provided.
type Bridge struct {
	botToken string
	maxAge   time.Duration // zero disables the auth_date check
}

// NewBridge creates a bridge for the given bot token.
func NewBridge(botToken string, maxAge time.Duration) *Bridge {
	return &Bridge{botToken: botToken, maxAge: maxAge}
}

// ParseInitData verifies the init data signature per the Bot API scheme
// (HMAC-SHA256 keyed on "WebAppData" + bot token over the sorted key=value
// lines) and returns the embedded user.
func (b *Bridge) ParseInitData(raw string) (*domain.TelegramUser, error) {
	if raw == "" {
		return nil, ErrMissingInitData
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	if !hmac.Equal([]byte(gotHash), []byte(b.sign(values))) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidInitData)
	}

	if b.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
		}
		if time.Since(time.Unix(authDate, 0)) > b.maxAge {
			return nil, ErrStaleInitData
		}
	}

	rawUser := values.Get("user")
	if rawUser == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}

	var user domain.TelegramUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, fmt.Errorf("%w: bad user payload: %v", ErrInvalidInitData, err)
	}

	return &user, nil
}

// Sign computes the init-data signature for the given fields. Exposed so
// tests can construct valid payloads.
func (b *Bridge) Sign(values url.Values) string {
	values.Del("hash")
	return b.sign(values)
}

func (b *Bridge) sign(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(b.botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}

// TestUser is the synthetic identity used when the host bridge is
// unavailable in development.
func TestUser() *domain.TelegramUser {
	return &domain.TelegramUser{
		ID:        12345678,
		FirstName: "Test",
		LastName:  "User",
		Username:  "testuser",
	}
}
