package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lifecoord/pkg/resource"
)

func TestNew(t *testing.T) {
	a := New("preview")
	b := New("preview")
	require.NotEqual(t, a.ID(), b.ID(), "generated IDs must be unique")
	require.Equal(t, "preview", a.Kind())
	require.True(t, a.Selector().IsZero())
	require.True(t, strings.HasPrefix(a.String(), "preview("))

	c := New("capture", WithID("cap-1"), WithName("still"), WithSelector(resource.NewSelector().RequireTag("hdr")))
	require.Equal(t, "cap-1", c.ID())
	require.Equal(t, "capture:still(cap-1)", c.String())
	require.Equal(t, "selector{tag=hdr}", c.Selector().String())

	require.Equal(t, []string{"cap-1"}, IDs([]UseCase{c}))
}

func TestStaticDefaults(t *testing.T) {
	d := StaticDefaults{
		"preview":       {"resolution": "720p"},
		"preview@front": {"resolution": "480p"},
	}

	got, ok := d.Defaults("preview", nil)
	require.True(t, ok)
	require.Equal(t, "720p", got["resolution"])

	got, ok = d.Defaults("preview", &resource.Info{Class: resource.ClassFront})
	require.True(t, ok)
	require.Equal(t, "480p", got["resolution"])

	got["resolution"] = "mutated"
	again, _ := d.Defaults("preview", &resource.Info{Class: resource.ClassFront})
	require.Equal(t, "480p", again["resolution"], "callers must get a copy")

	_, ok = d.Defaults("analysis", nil)
	require.False(t, ok)
}
