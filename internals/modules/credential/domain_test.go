package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastFourRedaction(t *testing.T) {
	c := RepoCredential{AccessToken: "ghp_abcdefghijklmnop1234"}
	assert.Equal(t, "1234", c.LastFour())
}

func TestLastFourShortToken(t *testing.T) {
	c := RepoCredential{AccessToken: "abc"}
	assert.Equal(t, "abc", c.LastFour())
}

func TestResponseNeverCarriesPlaintext(t *testing.T) {
	c := RepoCredential{Name: "deploy bot", AccessToken: "ghp_secretsecret9876"}
	resp := toCredentialResponse(c)

	assert.Equal(t, "9876", resp.TokenLast4)
	assert.NotContains(t, resp.Name, c.AccessToken)
}
