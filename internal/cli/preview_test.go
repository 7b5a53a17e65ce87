//go:build !ebiten

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"facewarp/internal/app"
)

func TestPreviewNeedsGUIBuild(t *testing.T) {
	_, planPath := fixture(t, "40")
	_, err := run(t, "preview", "--plan", planPath)
	assert.ErrorIs(t, err, app.ErrNoGUI)
}

func TestPreviewNeedsPhoto(t *testing.T) {
	_, err := run(t, "preview")
	assert.ErrorContains(t, err, "needs a photo")
}
