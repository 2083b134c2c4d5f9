package classpath

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	inner := NewMemoryLoader("app", nil)
	_, err = inner.Define(ClassDef{Name: "org.example.Foo"})
	require.NoError(t, err)

	l := Instrument(inner, m)
	assert.Equal(t, "app", l.Name())
	assert.Nil(t, l.Parent())

	_, err = l.LoadClass("org.example.Foo")
	require.NoError(t, err)
	_, err = l.LoadClass("org.example.Foo")
	require.NoError(t, err)
	_, err = l.LoadClass("org.example.Missing")
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Loads().WithLabelValues("app", OutcomeFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads().WithLabelValues("app", OutcomeNotFound)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Loads().WithLabelValues("app", OutcomeError)))
}

func TestInstrument_OtherErrors(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)

	l := Instrument(brokenLoader{err: errors.New("boom")}, m)
	_, err = l.LoadClass("org.example.Foo")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Loads().WithLabelValues("broken", OutcomeError)))
}

func TestNewMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
