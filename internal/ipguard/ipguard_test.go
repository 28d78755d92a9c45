package ipguard

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCIDRList(t *testing.T) {
	cidrs, err := ParseCIDRList("10.0.0.0/8, 2001:db8::/32", nil)
	require.NoError(t, err)
	require.Len(t, cidrs, 2)
}

func TestParseCIDRListSkipsMalformed(t *testing.T) {
	var warned []string
	cidrs, err := ParseCIDRList("10.0.0.0/8, not-a-cidr", func(msg string) { warned = append(warned, msg) })
	require.NoError(t, err)
	require.Len(t, cidrs, 1)
	require.Len(t, warned, 1)
}

func TestParseCIDRListAllMalformedIsFatal(t *testing.T) {
	_, err := ParseCIDRList("not-a-cidr", nil)
	require.Error(t, err)
}

func TestCheckIPv4(t *testing.T) {
	cidrs, err := ParseCIDRList("10.0.0.0/8", nil)
	require.NoError(t, err)

	require.True(t, Check("10.1.2.3", cidrs))
	require.False(t, Check("192.168.1.1", cidrs))
}

func TestCheckIPv6(t *testing.T) {
	cidrs, err := ParseCIDRList("2001:db8::/32", nil)
	require.NoError(t, err)

	require.True(t, Check("2001:db8:1::42", cidrs))
	require.False(t, Check("2001:0:1::42", cidrs))
}

func TestCheckEmptyListAllowsAll(t *testing.T) {
	require.True(t, Check("8.8.8.8", nil))
}

func TestDefaultPrefixLengths(t *testing.T) {
	c, err := parseCIDR("10.1.2.3")
	require.NoError(t, err)
	require.True(t, c.Matches(net.ParseIP("10.1.2.3")))
	require.False(t, c.Matches(net.ParseIP("10.1.2.4")))
}

func TestClientIPFromSSHClient(t *testing.T) {
	require.Equal(t, "203.0.113.5", ClientIPFromSSHClient("203.0.113.5 52341 198.51.100.9 22"))
	require.Equal(t, "", ClientIPFromSSHClient(""))
}
