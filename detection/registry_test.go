package detection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelRegistry(t *testing.T) {
	r := NewLabelRegistry()
	require.Zero(t, r.Len())

	require.Equal(t, 0, r.Intern("car"))
	require.Equal(t, 1, r.Intern("person"))
	require.Equal(t, 0, r.Intern("car"))
	require.Equal(t, 2, r.Intern("Car"))

	id, ok := r.Lookup("person")
	require.True(t, ok)
	require.Equal(t, 1, id)

	_, ok = r.Lookup("boat")
	require.False(t, ok)
	require.Equal(t, 3, r.Len(), "lookup must not assign ids")

	labels := r.Labels()
	require.Equal(t, []string{"car", "person", "Car"}, labels)
	labels[0] = "mutated"
	require.Equal(t, "car", r.Labels()[0])
}
