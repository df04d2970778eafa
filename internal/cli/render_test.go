package cli

import (
	"testing"

	"github.com/raphaelgruber/civickb/internal/render"
	"github.com/stretchr/testify/assert"
)

func TestCollisionLine(t *testing.T) {
	got := collisionLine(render.Collision{Slug: "anagrafe", First: 0, Second: 2})
	assert.Equal(t, "  Collision: records 1 and 3 share anagrafe.md", got)
}
