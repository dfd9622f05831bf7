package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndCode(t *testing.T) {
	base := fmt.Errorf("disk gone")
	err := Wrap(CodeStaticLookupFailed, "resolve static file", base)

	require.Equal(t, "resolve static file: disk gone", err.Error())
	require.ErrorIs(t, err, base)
	require.True(t, IsCode(fmt.Errorf("outer: %w", err), CodeStaticLookupFailed))
	require.False(t, IsCode(err, CodeBuildFailed))
	require.False(t, IsCode(base, ""))
	require.Equal(t, "", CodeOf(base))
	require.Equal(t, "no adapter", Wrap(CodeNoURLAdapter, "no adapter", nil).Error())
}
