package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

const testSecret = "000102030405060708090a0b0c0d0e0f"

func TestParseAndResolve(t *testing.T) {
	raw := "node-b=http://node-b.example:8080=" + testSecret +
		", node-c=https://node-c.example/=" + testSecret

	reg, err := Parse(raw)
	require.NoError(t, err)

	b, err := reg.Resolve("node-b")
	require.NoError(t, err)
	assert.Equal(t, "http://node-b.example:8080", b.Address)
	assert.Len(t, b.Secret, 16)

	c, err := reg.Resolve("node-c")
	require.NoError(t, err)
	assert.Equal(t, "https://node-c.example", c.Address, "trailing slash is trimmed")
}

func TestResolveUnknownNode(t *testing.T) {
	reg, err := Parse("")
	require.NoError(t, err)

	_, err = reg.Resolve("nope")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestParseRejectsMalformedEntry(t *testing.T) {
	_, err := Parse("node-b=http://x")
	assert.Error(t, err)
}

func TestParseRejectsShortSecret(t *testing.T) {
	_, err := Parse("node-b=http://x=abcd")
	assert.Error(t, err)
}

func TestParseRejectsBadHex(t *testing.T) {
	_, err := Parse("node-b=http://x=zzzz")
	assert.Error(t, err)
}

func TestParseRejectsDuplicateID(t *testing.T) {
	raw := strings.Join([]string{
		"node-b=http://one=" + testSecret,
		"node-b=http://two=" + testSecret,
	}, ",")
	_, err := Parse(raw)
	assert.Error(t, err)
}

func TestListSorted(t *testing.T) {
	raw := "node-z=http://z=" + testSecret + ",node-a=http://a=" + testSecret
	reg, err := Parse(raw)
	require.NoError(t, err)

	peers := reg.List()
	require.Len(t, peers, 2)
	assert.Equal(t, "node-a", peers[0].ID)
	assert.Equal(t, "node-z", peers[1].ID)
}
