package context_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sioctx "sioba/context"
)

func TestFromURICoercesTypedQueryParams(t *testing.T) {
	c, err := sioctx.FromURI("tcp://h:1?rows=52&cols=100&convertEol=0", nil)
	require.NoError(t, err)

	require.NotNil(t, c.Rows)
	assert.Equal(t, 52, *c.Rows)
	require.NotNil(t, c.Cols)
	assert.Equal(t, 100, *c.Cols)
	require.NotNil(t, c.ConvertEol)
	assert.False(t, *c.ConvertEol)

	assert.Equal(t, "tcp", *c.Scheme)
	assert.Equal(t, "h", *c.Host)
	assert.Equal(t, 1, *c.Port)
}

func TestFromURIUnknownQueryKeyStaysInQueryOnly(t *testing.T) {
	c, err := sioctx.FromURI("tcp://h:1?baudrate=115200", nil)
	require.NoError(t, err)

	assert.Equal(t, "115200", c.Get("baudrate", nil))
}

func TestDefaultsAreFilledWhenUnset(t *testing.T) {
	c, err := sioctx.FromURI("echo://", nil)
	require.NoError(t, err)

	require.NotNil(t, c.Rows)
	assert.Equal(t, 24, *c.Rows)
	require.NotNil(t, c.Cols)
	assert.Equal(t, 80, *c.Cols)
	require.NotNil(t, c.ConvertEol)
	assert.True(t, *c.ConvertEol)
	require.NotNil(t, c.ScrollbackBufferURI)
	assert.Equal(t, "terminal://", *c.ScrollbackBufferURI)
}

func TestURIValuesOverrideSchemeDefaults(t *testing.T) {
	schemeDefaults := sioctx.New()
	schemeDefaults.ConvertEol = boolPtr(false)

	c, err := sioctx.FromURI("tcp://h:1?convertEol=true", schemeDefaults)
	require.NoError(t, err)

	require.NotNil(t, c.ConvertEol)
	assert.True(t, *c.ConvertEol)
}

func TestOverridesWinOverEverything(t *testing.T) {
	c, err := sioctx.FromURI("tcp://h:1?rows=52", nil, sioctx.WithRows(10))
	require.NoError(t, err)

	require.NotNil(t, c.Rows)
	assert.Equal(t, 10, *c.Rows)
}

func TestUpdateOnlyOverwritesSetFields(t *testing.T) {
	base := sioctx.Defaults()
	patch := sioctx.New()
	patch.Rows = intPtr(100)

	base.Update(patch)

	assert.Equal(t, 100, *base.Rows)
	assert.Equal(t, 80, *base.Cols)
}

func TestFillMissingKeepsExistingValues(t *testing.T) {
	c := sioctx.New()
	c.Rows = intPtr(52)

	c.FillMissing(sioctx.Defaults())

	assert.Equal(t, 52, *c.Rows)
	assert.Equal(t, 80, *c.Cols)
}

func TestCopyIsIndependent(t *testing.T) {
	c := sioctx.Defaults()
	c.ExtraParams["baudrate"] = "9600"

	cp := c.Copy()
	cp.ExtraParams["baudrate"] = "115200"

	assert.Equal(t, "9600", c.ExtraParams["baudrate"])
	assert.Equal(t, "115200", cp.ExtraParams["baudrate"])
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
