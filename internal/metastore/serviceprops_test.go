package metastore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetServicePropertiesDefaultsWhenUnset(t *testing.T) {
	s := newTestStore(t)

	out, err := s.GetServiceProperties("acct")
	require.NoError(t, err)
	require.Equal(t, "acct", out.AccountName)
	require.Nil(t, out.CORS)
	require.Nil(t, out.HourMetrics)
	require.Nil(t, out.MinuteMetrics)
	require.Nil(t, out.Logging)
}

func TestSetServicePropertiesInsertsThenPartiallyUpdates(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SetServiceProperties("acct", &ServicePropertiesRecord{
		AccountName: "acct",
		CORS:        &CORSRules{AllowedOrigins: []string{"*"}},
		HourMetrics: &MetricsConfig{Enabled: true, RetentionInDays: 7},
	})
	require.NoError(t, err)
	require.NotNil(t, first.CORS)
	require.NotNil(t, first.HourMetrics)
	require.Nil(t, first.MinuteMetrics)
	require.Nil(t, first.Logging)

	second, err := s.SetServiceProperties("acct", &ServicePropertiesRecord{
		AccountName: "acct",
		Logging:     &LoggingConfig{Delete: true, RetentionInDays: 30},
	})
	require.NoError(t, err)
	require.NotNil(t, second.Logging)
	require.True(t, second.Logging.Delete)
	require.NotNil(t, second.CORS, "expected CORS from the first call to survive untouched")
	require.Equal(t, []string{"*"}, second.CORS.AllowedOrigins)
	require.NotNil(t, second.HourMetrics, "expected HourMetrics from the first call to survive untouched")
	require.True(t, second.HourMetrics.Enabled)
	require.Nil(t, second.MinuteMetrics)

	reread, err := s.GetServiceProperties("acct")
	require.NoError(t, err)
	require.NotNil(t, reread.Logging)
	require.True(t, reread.Logging.Delete, "expected the update to persist")
}
