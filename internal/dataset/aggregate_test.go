package dataset

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregate_RawIsUnsupported(t *testing.T) {
	a := &Aggregate{}
	_, _, err := a.Raw(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrInvalid))
}

func TestAggregate_DASDelegatesToStoredText(t *testing.T) {
	a := &Aggregate{das: "Attributes {\n}"}
	require.Equal(t, "Attributes {\n}", a.DAS())
}
