package logfields

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestError_NilError_EmptyValue(t *testing.T) {
	attr := Error(nil)
	require.Equal(t, KeyError, attr.Key)
	require.Equal(t, "", attr.Value.String())
}

func TestError_NonNil_CarriesMessage(t *testing.T) {
	attr := Error(errors.New("boom"))
	require.Equal(t, "boom", attr.Value.String())
}

func TestHelpers_UseCanonicalKeys(t *testing.T) {
	require.Equal(t, KeyRunID, RunID("x").Key)
	require.Equal(t, KeyStage, Stage("discover").Key)
	require.Equal(t, KeyRule, Rule("nav-target-exists").Key)
	require.Equal(t, KeyDoc, Doc("code-style/README.md").Key)
	require.Equal(t, KeyCount, Count(3).Key)
}

func TestDurationMS_ReportsFractionalMilliseconds(t *testing.T) {
	attr := DurationMS(1500 * time.Microsecond)
	require.Equal(t, KeyDurationMS, attr.Key)
	require.Equal(t, 1.5, attr.Value.Float64())
}
